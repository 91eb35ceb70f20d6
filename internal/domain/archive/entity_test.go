package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	p := NewPage(nil, 2, 10, 21)
	assert.Equal(t, 3, p.TotalPages)
	assert.NotNil(t, p.Data)

	assert.Equal(t, 0, NewPage(nil, 1, 0, 5).TotalPages)
	assert.Equal(t, 1, NewPage([]*Entry{{ID: "a"}}, 1, 10, 10).TotalPages)
}
