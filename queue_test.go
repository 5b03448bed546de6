package arq

import "testing"

func TestSegQueuePushPopFront(t *testing.T) {
	var q segQueue
	q.pushBack(segment{sn: 1})
	q.pushBack(segment{sn: 2})
	q.pushBack(segment{sn: 3})

	if q.len() != 3 {
		t.Fatalf("len = %d, want 3", q.len())
	}
	if q.front().sn != 1 {
		t.Fatalf("front.sn = %d, want 1", q.front().sn)
	}

	got := q.popFront()
	if got.sn != 1 || q.len() != 2 {
		t.Fatalf("popFront = %+v, len = %d", got, q.len())
	}
	if q.front().sn != 2 {
		t.Fatalf("front.sn after pop = %d, want 2", q.front().sn)
	}
}

func TestSegQueueInsertAtKeepsOrder(t *testing.T) {
	var q segQueue
	q.pushBack(segment{sn: 1})
	q.pushBack(segment{sn: 3})
	q.insertAt(1, segment{sn: 2})

	want := []uint32{1, 2, 3}
	if q.len() != len(want) {
		t.Fatalf("len = %d, want %d", q.len(), len(want))
	}
	for i, w := range want {
		if q.items[i].sn != w {
			t.Fatalf("items[%d].sn = %d, want %d", i, q.items[i].sn, w)
		}
	}
}

func TestSegQueueRemoveAt(t *testing.T) {
	var q segQueue
	q.pushBack(segment{sn: 1})
	q.pushBack(segment{sn: 2})
	q.pushBack(segment{sn: 3})
	q.removeAt(1)

	if q.len() != 2 || q.items[0].sn != 1 || q.items[1].sn != 3 {
		t.Fatalf("after removeAt(1): %+v", q.items)
	}
}

func TestSegQueueDropFront(t *testing.T) {
	var q segQueue
	q.pushBack(segment{sn: 1})
	q.pushBack(segment{sn: 2})
	q.pushBack(segment{sn: 3})
	q.dropFront(2)

	if q.len() != 1 || q.items[0].sn != 3 {
		t.Fatalf("after dropFront(2): %+v", q.items)
	}
}
