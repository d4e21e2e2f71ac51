// Package mms holds typed models of the MMS (ISO 9506) PDUs that carry
// cancel, conclude, initiate error and reject traffic. The tags follow the
// ISO 9506-2 ASN.1 module; every type registers under its ASN.1 name.
package mms

import (
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

// Error codes of the service error class.
const (
	ServiceOther                    = int64(0)
	ServicePrimitivesOutOfSequence  = int64(1)
	ServiceObjectStateConflict      = int64(2)
	ServicePDUSize                  = int64(3)
	ServiceContinuationInvalid      = int64(4)
	ServiceObjectConstraintConflict = int64(5)
)

// Error codes of the access error class.
const (
	AccessOther                   = int64(0)
	AccessObjectAccessUnsupported = int64(1)
	AccessObjectNonExistent       = int64(2)
	AccessObjectAccessDenied      = int64(3)
	AccessObjectInvalidated       = int64(4)
)

// ErrorClass selects the class of a ServiceError and the code within it.
// Exactly one alternative is set.
type ErrorClass struct {
	_                    struct{} `asn1:"choice"`
	VMDState             *int64   `asn1:"name=vmd-state,tag=0"`
	ApplicationReference *int64   `asn1:"name=application-reference,tag=1"`
	Definition           *int64   `asn1:"tag=2"`
	Resource             *int64   `asn1:"tag=3"`
	Service              *int64   `asn1:"tag=4"`
	ServicePreempt       *int64   `asn1:"name=service-preempt,tag=5"`
	TimeResolution       *int64   `asn1:"name=time-resolution,tag=6"`
	Access               *int64   `asn1:"tag=7"`
	Initiate             *int64   `asn1:"tag=8"`
	Conclude             *int64   `asn1:"tag=9"`
	Cancel               *int64   `asn1:"tag=10"`
	File                 *int64   `asn1:"tag=11"`
	Others               *int64   `asn1:"tag=12"`
}

func (ErrorClass) ASN1TypeName() string { return "ErrorClass" }

// ServiceSpecificInformation refines a ServiceError for the service that
// failed.
type ServiceSpecificInformation struct {
	_                       struct{} `asn1:"choice"`
	ObtainFile              *int64   `asn1:"tag=0"`
	Start                   *int64   `asn1:"tag=1"`
	Stop                    *int64   `asn1:"tag=2"`
	Resume                  *int64   `asn1:"tag=3"`
	Reset                   *int64   `asn1:"tag=4"`
	DeleteVariableAccess    *uint32  `asn1:"tag=5"`
	DeleteNamedVariableList *uint32  `asn1:"tag=6"`
	DeleteNamedType         *uint32  `asn1:"tag=7"`
	FileRename              *int64   `asn1:"tag=9"`
	ChangeAccessControl     *uint32  `asn1:"tag=11"`
}

func (ServiceSpecificInformation) ASN1TypeName() string { return "ServiceSpecificInformation" }

type ServiceError struct {
	ErrorClass                 ErrorClass                  `asn1:"tag=0"`
	AdditionalCode             *int64                      `asn1:"tag=1"`
	AdditionalDescription      *string                     `asn1:"tag=2,visibleString"`
	ServiceSpecificInformation *ServiceSpecificInformation `asn1:"tag=3"`
}

func (ServiceError) ASN1TypeName() string { return "ServiceError" }

// CancelErrorPDU answers a cancel request that could not be carried out.
type CancelErrorPDU struct {
	OriginalInvokeID uint32       `asn1:"tag=0"`
	ServiceError     ServiceError `asn1:"tag=1"`
}

func (CancelErrorPDU) ASN1TypeName() string { return "Cancel-ErrorPDU" }

// RejectReason names the PDU type that was rejected and why.
type RejectReason struct {
	_                    struct{} `asn1:"choice"`
	ConfirmedRequestPDU  *int64   `asn1:"name=confirmed-requestPDU,tag=1"`
	ConfirmedResponsePDU *int64   `asn1:"name=confirmed-responsePDU,tag=2"`
	ConfirmedErrorPDU    *int64   `asn1:"name=confirmed-errorPDU,tag=3"`
	UnconfirmedPDU       *int64   `asn1:"tag=4"`
	PDUError             *int64   `asn1:"name=pdu-error,tag=5"`
	CancelRequestPDU     *int64   `asn1:"name=cancel-requestPDU,tag=6"`
	CancelResponsePDU    *int64   `asn1:"name=cancel-responsePDU,tag=7"`
	CancelErrorPDU       *int64   `asn1:"name=cancel-errorPDU,tag=8"`
	ConcludeRequestPDU   *int64   `asn1:"name=conclude-requestPDU,tag=9"`
	ConcludeResponsePDU  *int64   `asn1:"name=conclude-responsePDU,tag=10"`
	ConcludeErrorPDU     *int64   `asn1:"name=conclude-errorPDU,tag=11"`
}

func (RejectReason) ASN1TypeName() string { return "RejectReason" }

// RejectPDU reports a PDU that could not be parsed or was out of place. The
// reason is an untagged choice following the optional invoke id.
type RejectPDU struct {
	OriginalInvokeID *uint32 `asn1:"tag=0"`
	RejectReason     RejectReason
}

func (RejectPDU) ASN1TypeName() string { return "RejectPDU" }

// PDU is the subset of MMSpdu this package models. Exactly one alternative is
// set.
type PDU struct {
	_                   struct{}        `asn1:"choice"`
	RejectPDU           *RejectPDU      `asn1:"name=rejectPDU,tag=4"`
	CancelRequestPDU    *uint32         `asn1:"name=cancel-RequestPDU,tag=5"`
	CancelResponsePDU   *uint32         `asn1:"name=cancel-ResponsePDU,tag=6"`
	CancelErrorPDU      *CancelErrorPDU `asn1:"name=cancel-ErrorPDU,tag=7"`
	InitiateErrorPDU    *ServiceError   `asn1:"name=initiate-ErrorPDU,tag=10"`
	ConcludeRequestPDU  *pdu.Null       `asn1:"name=conclude-RequestPDU,tag=11"`
	ConcludeResponsePDU *pdu.Null       `asn1:"name=conclude-ResponsePDU,tag=12"`
	ConcludeErrorPDU    *ServiceError   `asn1:"name=conclude-ErrorPDU,tag=13"`
}

func (PDU) ASN1TypeName() string { return "MMSpdu" }
