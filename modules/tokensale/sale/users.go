package sale

import "github.com/gaze-network/token-sale/common"

// userSet is an append-only set of purchasers that remembers insertion order.
type userSet struct {
	list  []common.Address
	index map[common.Address]int
}

func newUserSet() *userSet {
	return &userSet{index: make(map[common.Address]int)}
}

// add reports whether account was newly inserted.
func (s *userSet) add(account common.Address) bool {
	if _, ok := s.index[account]; ok {
		return false
	}
	s.index[account] = len(s.list)
	s.list = append(s.list, account)
	return true
}

func (s *userSet) contains(account common.Address) bool {
	_, ok := s.index[account]
	return ok
}

func (s *userSet) len() int {
	return len(s.list)
}

func (s *userSet) at(i int) (common.Address, bool) {
	if i < 0 || i >= len(s.list) {
		return common.Address{}, false
	}
	return s.list[i], true
}
