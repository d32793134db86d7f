package models

import (
	"database/sql/driver"
	"fmt"
)

// AnnotationStatus is the lifecycle of the mock auto-annotation process of an image.
type AnnotationStatus string

const (
	AnnotationStatusQueued     AnnotationStatus = "Queued"
	AnnotationStatusProcessing AnnotationStatus = "Processing"
	AnnotationStatusSuccess    AnnotationStatus = "Success"
	AnnotationStatusFail       AnnotationStatus = "Fail"
)

// Next returns the status an observation moves the image to.
// Success and Fail are terminal and report ok=false.
func (s AnnotationStatus) Next() (AnnotationStatus, bool) {
	switch s {
	case AnnotationStatusQueued:
		return AnnotationStatusProcessing, true
	case AnnotationStatusProcessing:
		return AnnotationStatusSuccess, true
	default:
		return s, false
	}
}

func (s AnnotationStatus) Valid() bool {
	switch s {
	case AnnotationStatusQueued, AnnotationStatusProcessing, AnnotationStatusSuccess, AnnotationStatusFail:
		return true
	}
	return false
}

func (s AnnotationStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *AnnotationStatus) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*s = AnnotationStatus(v)
	case []byte:
		*s = AnnotationStatus(v)
	case nil:
		*s = ""
	default:
		return fmt.Errorf("unsupported annotation status type %T", value)
	}
	return nil
}
