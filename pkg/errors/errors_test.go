package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code     int
		wantNil  bool
		wantType ErrorType
	}{
		{code: 200, wantNil: true},
		{code: 204, wantNil: true},
		{code: 401, wantType: ErrorTypeAuth},
		{code: 403, wantType: ErrorTypeAuth},
		{code: 404, wantType: ErrorTypeNotFound},
		{code: 500, wantType: ErrorTypeHTTPStatus},
		{code: 302, wantType: ErrorTypeHTTPStatus},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			err := FromStatus(tt.code, "https://portal.example/x")
			if tt.wantNil {
				assert.Nil(t, err)
				return
			}
			if assert.NotNil(t, err) {
				assert.Equal(t, tt.wantType, err.Type)
				assert.Equal(t, tt.code, err.Code)
				assert.Contains(t, err.Error(), "https://portal.example/x")
			}
		})
	}
}

func TestWrapAndIsType(t *testing.T) {
	base := stderrors.New("disk full")
	err := fmt.Errorf("saving: %w", Wrap(ErrorTypeFilesystem, "", "write failed", base))

	assert.True(t, IsType(err, ErrorTypeFilesystem))
	assert.False(t, IsType(err, ErrorTypeNetwork))
	assert.True(t, stderrors.Is(err, base))
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, IsType(base, ErrorTypeFilesystem))
}
