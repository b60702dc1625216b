package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKafkaSourceFailsWithUnconfiguredError(t *testing.T) {
	src := KafkaSource[int]()
	_, _, err := src.Next()
	assert.ErrorIs(t, err, ErrKafkaUnconfigured)
}

func TestKafkaDrainPanicsOnPush(t *testing.T) {
	d := KafkaDrain[int]()
	assert.Panics(t, func() { d.Push(0, []int{1}) })
}
