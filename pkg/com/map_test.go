package com

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

type testClient struct {
	id string
	c  int32
}

func (t *testClient) change(n int) { atomic.AddInt32(&t.c, int32(n)) }

func TestPointerValue(t *testing.T) {
	m := NewMap[string, *testClient]()
	c := testClient{id: "1"}
	m.Put(c.id, &c)
	c.change(100)
	fc, err := m.Find("1")
	if err != nil {
		t.Fatalf("not found: %v", err)
	}
	if fc.c != c.c {
		t.Errorf("not expected change, o: %v != %v", c.c, fc.c)
	}
}

func TestMap(t *testing.T) {
	m := NewMap[string, int]()
	if _, err := m.Find(""); err != ErrNotFound {
		t.Errorf("empty key should not be found")
	}
	m.Put("a", 1)
	m.Put("b", 2)
	if !m.Has("a") || m.Len() != 2 {
		t.Fatalf("wrong map state")
	}
	if v, ok := m.Pop("a"); !ok || v != 1 {
		t.Errorf("pop: %v %v", v, ok)
	}
	if _, ok := m.Pop("a"); ok {
		t.Errorf("second pop should fail")
	}
	m.RemoveByKey("b")
	if !m.IsEmpty() {
		t.Errorf("map should be empty")
	}
}

func TestConcurrentPut(t *testing.T) {
	m := NewMap[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) { defer wg.Done(); m.Put(fmt.Sprintf("%v", i), i) }(i)
	}
	wg.Wait()
	sum := 0
	m.ForEach(func(v int) { sum += v })
	if m.Len() != 100 || sum != 4950 {
		t.Errorf("got %v items, sum %v", m.Len(), sum)
	}
}
