package appointment

// fifo is a first-in first-out line of appointment ids. Membership is
// independent of the appointment index; callers check both.
type fifo struct {
	ids []int64
}

func (q *fifo) enqueue(id int64) {
	q.ids = append(q.ids, id)
}

func (q *fifo) dequeue() (int64, bool) {
	if len(q.ids) == 0 {
		return 0, false
	}
	id := q.ids[0]
	q.ids[0] = 0
	q.ids = q.ids[1:]
	return id, true
}

// remove drops the first occurrence of id and reports whether it was there.
func (q *fifo) remove(id int64) bool {
	for i, v := range q.ids {
		if v == id {
			q.ids = append(q.ids[:i:i], q.ids[i+1:]...)
			return true
		}
	}
	return false
}

func (q *fifo) contains(id int64) bool {
	for _, v := range q.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (q *fifo) len() int {
	return len(q.ids)
}

func (q *fifo) snapshot() []int64 {
	return append([]int64(nil), q.ids...)
}
