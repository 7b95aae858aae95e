package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs    []published
	err     error
	drained bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject, data})
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNATS_PublishInteraction(t *testing.T) {
	fc := &fakeConn{}
	p := &NATS{nc: fc}

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, p.PublishInteraction(Interaction{NPCID: "luna", UserID: "u1", Reply: "ciao", Decision: "commit", XPGained: 25, OccurredAt: at}))
	require.Len(t, fc.msgs, 1)
	assert.Equal(t, SubjectInteraction, fc.msgs[0].subject)

	var got Interaction
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &got))
	assert.Equal(t, "luna", got.NPCID)
	assert.Equal(t, 25, got.XPGained)
	assert.True(t, got.OccurredAt.Equal(at))
}

func TestNATS_PublishLevelUp(t *testing.T) {
	fc := &fakeConn{}
	p := &NATS{nc: fc}

	require.NoError(t, p.PublishLevelUp(LevelUp{NPCID: "luna", Level: 2, XP: 1015}))
	require.Len(t, fc.msgs, 1)
	assert.Equal(t, SubjectLevelUp, fc.msgs[0].subject)
	assert.Contains(t, string(fc.msgs[0].data), `"level":2`)

	require.NoError(t, p.Close())
	assert.True(t, fc.drained)
}

func TestNATS_PublishError(t *testing.T) {
	p := &NATS{nc: &fakeConn{err: errors.New("disconnected")}}
	err := p.PublishLevelUp(LevelUp{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), SubjectLevelUp)
}

func TestNew_EmptyURLIsNoop(t *testing.T) {
	p, err := New("")
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.PublishInteraction(Interaction{}))
	assert.NoError(t, p.PublishLevelUp(LevelUp{}))
	assert.NoError(t, p.Close())
}
