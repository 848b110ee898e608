package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestTypeNextCycles(t *testing.T) {
	seq := []RequestType{RequestTypeUnset}
	for i := 0; i < 4; i++ {
		seq = append(seq, seq[len(seq)-1].Next())
	}
	assert.Equal(t, []RequestType{
		RequestTypeUnset,
		RequestTypeAvailable,
		RequestTypeUnavailable,
		RequestTypePreferred,
		RequestTypeUnset,
	}, seq)
	assert.False(t, RequestTypeUnset.Valid())
	assert.True(t, RequestTypePreferred.Valid())
}

func TestEntryValidationRejected(t *testing.T) {
	assert.False(t, EntryValidation{IsValid: true, Warnings: []ValidationWarning{{Type: WarningTypeSoft, Message: "long month"}}}.Rejected())
	assert.True(t, EntryValidation{IsValid: true, Warnings: []ValidationWarning{{Type: WarningTypeHard, Message: "overlap"}}}.Rejected())
	assert.True(t, EntryValidation{IsValid: false}.Rejected())
}
