package parser

import (
	"container/heap"

	"github.com/nao1215/siteparser/internal/urlnorm"
)

// frontierItem is one pending URL with its crawl depth and priority.
type frontierItem struct {
	url      *urlnorm.URL
	depth    int
	priority int
	seq      int
}

// frontierHeap orders items by (priority, insertion sequence), so equal
// priorities pop first-in-first-out.
type frontierHeap []*frontierItem

func (h frontierHeap) Len() int { return len(h) }

func (h frontierHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h frontierHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontierHeap) Push(x any) { *h = append(*h, x.(*frontierItem)) }

func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// frontier is the priority queue of pending URLs. It is not safe for
// concurrent use; the coordinator goroutine owns it exclusively.
type frontier struct {
	heap frontierHeap
	seq  int
}

// push enqueues a URL with the given depth and priority.
func (f *frontier) push(u *urlnorm.URL, depth, priority int) {
	item := &frontierItem{url: u, depth: depth, priority: priority, seq: f.seq}
	f.seq++
	heap.Push(&f.heap, item)
}

// pop removes and returns the best item, or nil when empty.
func (f *frontier) pop() *frontierItem {
	if len(f.heap) == 0 {
		return nil
	}
	return heap.Pop(&f.heap).(*frontierItem)
}

// len returns the number of pending items.
func (f *frontier) len() int {
	return len(f.heap)
}
