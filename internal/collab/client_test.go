package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDecodeStampsIdentity(t *testing.T) {
	h, _ := newTestHub(nil)
	c := newTestClient(h, "a")

	msg, err := c.decode([]byte(`{"type":"presence.update","userId":"someone-else","clientId":"x","projectId":"other"}`))
	require.NoError(t, err)
	assert.Equal(t, "user-a", msg.UserID)
	assert.Equal(t, "a", msg.ClientID)
	assert.Equal(t, "proj1", msg.ProjectID)

	_, err = c.decode([]byte(`{"payload":{}}`))
	assert.Error(t, err)
	_, err = c.decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestClientSendDropsWhenFull(t *testing.T) {
	h, reg := newTestHub(nil)
	c := newTestClient(h, "a")
	c.send = make(chan []byte, 1)

	c.Send(newMessage(TypeError, ErrorPayload{Message: "first"}))
	c.Send(newMessage(TypeError, ErrorPayload{Message: "second"}))
	assert.Len(t, c.send, 1)
	assert.Equal(t, 1.0, metricValue(t, reg, "drafting_collab_dropped_messages_total", ""))

	c.close()
	c.close()
	c.Send(newMessage(TypeError, ErrorPayload{Message: "after close"}))
	assert.Len(t, drain(t, c), 1)
}

func TestWithSendBuffer(t *testing.T) {
	h, _ := newTestHub(nil)
	c := NewClient(h, nil, Identity{ClientID: "a"}, WithSendBuffer(4))
	assert.Equal(t, 4, cap(c.send))

	c = NewClient(h, nil, Identity{ClientID: "b"}, WithSendBuffer(0))
	assert.Equal(t, defaultSendBuffer, cap(c.send))
}
