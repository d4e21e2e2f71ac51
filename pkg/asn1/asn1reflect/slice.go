package asn1reflect

import (
	"reflect"
	"strconv"

	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

func (m *Mapper) sliceToValue(rv reflect.Value, path string) (pdu.Value, error) {
	n := rv.Len()
	list := make(pdu.List, 0, n)
	for i := 0; i < n; i++ {
		v, err := m.toValue(rv.Index(i), path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

func (m *Mapper) sliceFromValue(value pdu.Value, rv reflect.Value, path string) error {
	list, ok := value.(pdu.List)
	if !ok {
		return mismatch(path, "list", value)
	}
	updatedSlice := reflect.MakeSlice(rv.Type(), len(list), len(list))
	for i, item := range list {
		if err := m.fromValue(item, updatedSlice.Index(i), path+"["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	rv.Set(updatedSlice)
	return nil
}
