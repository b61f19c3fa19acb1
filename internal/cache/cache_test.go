package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "order:o1", OrderKey("o1"))
	assert.Equal(t, "order:number:ORD202508290001", OrderNumberKey("ORD202508290001"))
	assert.Equal(t, "customer:c1", CustomerKey("c1"))
	assert.Equal(t, "product:p1", ProductKey("p1"))
}
