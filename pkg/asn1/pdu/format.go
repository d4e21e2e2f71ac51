package pdu

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

// Format writes v as an indented tree, one member per line.
func Format(w io.Writer, v Value) error {
	return format(w, v, 0)
}

func Sprint(v Value) string {
	sb := &strings.Builder{}
	_ = Format(sb, v)
	return sb.String()
}

func format(w io.Writer, v Value, depth int) error {
	indent := strings.Repeat("  ", depth)
	var err error
	switch tv := v.(type) {
	case *Record:
		for _, f := range tv.Fields() {
			if isLeaf(f.Value) {
				_, err = fmt.Fprintf(w, "%s%s: %s\n", indent, f.Name, leaf(f.Value))
			} else {
				if _, err = fmt.Fprintf(w, "%s%s:\n", indent, f.Name); err == nil {
					err = format(w, f.Value, depth+1)
				}
			}
			if err != nil {
				return err
			}
		}
	case List:
		for i, elem := range tv {
			if isLeaf(elem) {
				_, err = fmt.Fprintf(w, "%s- [%d] %s\n", indent, i, leaf(elem))
			} else {
				if _, err = fmt.Fprintf(w, "%s- [%d]\n", indent, i); err == nil {
					err = format(w, elem, depth+1)
				}
			}
			if err != nil {
				return err
			}
		}
	case Choice:
		if isLeaf(tv.Value) {
			_, err = fmt.Fprintf(w, "%s%s: %s\n", indent, tv.Name, leaf(tv.Value))
		} else {
			if _, err = fmt.Fprintf(w, "%s%s:\n", indent, tv.Name); err == nil {
				err = format(w, tv.Value, depth+1)
			}
		}
	default:
		_, err = fmt.Fprintf(w, "%s%s\n", indent, leaf(v))
	}
	return err
}

func isLeaf(v Value) bool {
	switch tv := v.(type) {
	case *Record, List:
		return false
	case Choice:
		return isLeaf(tv.Value)
	}
	return true
}

func leaf(v Value) string {
	switch tv := v.(type) {
	case nil:
		return "<absent>"
	case []byte:
		return "0x" + hex.EncodeToString(tv)
	case string:
		return fmt.Sprintf("%q", tv)
	case time.Time:
		return tv.UTC().Format(time.RFC3339Nano)
	case Choice:
		return tv.Name + "=" + leaf(tv.Value)
	}
	return fmt.Sprint(v)
}
