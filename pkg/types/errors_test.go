package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "bare self reference", err: ErrSelfReference, want: "Cannot link an entity to itself"},
		{name: "wrapped cross workspace", err: fmt.Errorf("create link: %w", ErrCrossWorkspace), want: "Cannot link entities from different workspaces"},
		{name: "specific message wins", err: Errorf(ErrAlreadyExists, "This link already exists"), want: "This link already exists"},
		{name: "wrapped specific message", err: fmt.Errorf("outer: %w", NotFoundf("Table not found")), want: "Table not found"},
		{name: "store error passes through", err: errors.New("disk I/O error"), want: "disk I/O error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, ErrValidation, Kind(Invalidf("bad operator")))
	assert.Equal(t, ErrNotFound, Kind(fmt.Errorf("x: %w", ErrNotFound)))
	assert.Equal(t, ErrStore, Kind(errors.New("boom")))
	assert.True(t, errors.Is(Errorf(ErrAccessDenied, "no"), ErrAccessDenied))
}
