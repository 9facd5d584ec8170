package service

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// userLocks 同一個使用者的購物車操作依序執行，避免讀改寫互相覆蓋
type userLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *userLocks) lock(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
