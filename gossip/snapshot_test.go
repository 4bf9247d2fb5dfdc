package gossip

import (
	"testing"

	"github.com/quorumforge/elections/types"
	"github.com/stretchr/testify/assert"
)

func TestMembersDefaultsEmpty(t *testing.T) {
	s := New()
	assert.Empty(t, s.Members())
}

func TestUpdatePublishesToSubscribers(t *testing.T) {
	s := New()
	var seen []types.MemberInfo
	s.Subscribe(func(members []types.MemberInfo) { seen = members })

	members := []types.MemberInfo{{InstanceId: types.NewNodeId(), IsAlive: true}}
	s.Update(members)

	assert.Equal(t, members, seen)
	assert.Equal(t, members, s.Members())
}

func TestUpdateNotifiesMultipleSubscribers(t *testing.T) {
	s := New()
	var a, b int
	s.Subscribe(func(members []types.MemberInfo) { a++ })
	s.Subscribe(func(members []types.MemberInfo) { b++ })

	s.Update([]types.MemberInfo{})
	s.Update([]types.MemberInfo{})

	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}
