package types

import "sort"

// NormalizeServers filters out Manager members and dead members, then
// sorts what remains descending by ExternalEndpoint. Every incoming
// gossip snapshot is normalized this way before it becomes the
// coordinator's servers field.
func NormalizeServers(members []MemberInfo) []MemberInfo {
	out := make([]MemberInfo, 0, len(members))
	for _, m := range members {
		if m.State == VNodeManager || !m.IsAlive {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExternalEndpoint.Compare(out[j].ExternalEndpoint) > 0
	})
	return out
}

// EligibleProposers returns the subset of servers that may hold the
// proposer role for some view, i.e. every non-read-only member. Order
// is preserved from servers, which callers are expected to have already
// normalized.
func EligibleProposers(servers []MemberInfo) []MemberInfo {
	out := make([]MemberInfo, 0, len(servers))
	for _, m := range servers {
		if !m.IsReadOnlyReplica {
			out = append(out, m)
		}
	}
	return out
}

// FindMember returns the member with the given id, if present.
func FindMember(servers []MemberInfo, id NodeId) (MemberInfo, bool) {
	for _, m := range servers {
		if m.InstanceId == id {
			return m, true
		}
	}
	return MemberInfo{}, false
}
