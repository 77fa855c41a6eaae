package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signalled(t *testing.T, sig *Signal) bool {
	t.Helper()
	select {
	case <-sig.C:
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

func TestHubPublishReachesSubscribedTopic(t *testing.T) {
	h := NewHub()
	sig := h.Subscribe("pokemons")
	defer sig.Close()

	h.Publish("pokemons")
	require.True(t, signalled(t, sig))
}

func TestHubPublishIgnoresUnrelatedTopic(t *testing.T) {
	h := NewHub()
	sig := h.Subscribe("pokemons")
	defer sig.Close()

	h.Publish("types")
	assert.False(t, signalled(t, sig))
}

func TestHubCoalescesPendingSignals(t *testing.T) {
	h := NewHub()
	sig := h.Subscribe("pokemons")
	defer sig.Close()

	// 未被消费的信号会合并，三次发布只留下一个待处理信号
	h.Publish("pokemons")
	h.Publish("pokemons")
	h.Publish("pokemons")

	require.True(t, signalled(t, sig))
	assert.False(t, signalled(t, sig))
}

func TestHubDeduplicatesAcrossTopicsInOnePublish(t *testing.T) {
	h := NewHub()
	sig := h.Subscribe("pokemons", "species")
	defer sig.Close()

	// 一次发布同时命中同一个观察者的两个主题，只通知一次
	h.Publish("pokemons", "species")

	require.True(t, signalled(t, sig))
	assert.False(t, signalled(t, sig))
}

func TestHubCloseUnsubscribes(t *testing.T) {
	h := NewHub()
	sig := h.Subscribe("pokemons")
	sig.Close()

	h.Publish("pokemons")
	assert.False(t, signalled(t, sig))
}

func TestHubIndependentSubscribersEachNotified(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("pokemons")
	defer a.Close()
	b := h.Subscribe("pokemons")
	defer b.Close()

	h.Publish("pokemons")
	assert.True(t, signalled(t, a))
	assert.True(t, signalled(t, b))
}
