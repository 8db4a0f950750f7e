package store

import (
	"encoding/json"
	"errors"
	"testing"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func mustPanicWith[E error](t *testing.T, fn func()) E {
	t.Helper()
	var target E
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatalf("expected panic")
			}
			err, ok := r.(error)
			if !ok || !errors.As(err, &target) {
				t.Fatalf("panic value %v (%T) is not %T", r, r, target)
			}
		}()
		fn()
	}()
	return target
}

func TestAddReturnsSequentialIDs(t *testing.T) {
	a := NewArena[widget]("widgets")
	const n = 50
	for i := 0; i < n; i++ {
		id := a.Add(widget{Count: i})
		if id.Index() != i {
			t.Fatalf("add %d returned id %d", i, id.Index())
		}
	}
	i := 0
	for id, w := range a.All() {
		if id.Index() != i || w.Count != i {
			t.Fatalf("iteration %d yielded id %d count %d", i, id.Index(), w.Count)
		}
		i++
	}
	if i != n {
		t.Fatalf("iterated %d items, want %d", i, n)
	}
}

func TestSecondMutPanics(t *testing.T) {
	a := NewArena[widget]("widgets")
	id := a.Add(widget{})
	m := a.GetMut(id)
	err := mustPanicWith[*BorrowError](t, func() { a.GetMut(id) })
	if err.Held != "exclusive" || err.Index != id.Index() {
		t.Fatalf("unexpected borrow error %v", err)
	}
	mustPanicWith[*BorrowError](t, func() { a.Get(id) })
	m.Release()
	a.Get(id).Release()
}

func TestMutWhileSharedPanics(t *testing.T) {
	a := NewArena[widget]("widgets")
	id := a.Add(widget{})
	r1 := a.Get(id)
	r2 := a.Get(id)
	mustPanicWith[*BorrowError](t, func() { a.GetMut(id) })
	r1.Release()
	mustPanicWith[*BorrowError](t, func() { a.GetMut(id) })
	r2.Release()
	a.GetMut(id).Release()
}

func TestDistinctIDsMayBeMutatedTogether(t *testing.T) {
	a := NewArena[widget]("widgets")
	x := a.Add(widget{Count: 1})
	y := a.Add(widget{Count: 2})
	mx := a.GetMut(x)
	my := a.GetMut(y)
	mx.Value().Count, my.Value().Count = my.Value().Count, mx.Value().Count
	mx.Release()
	my.Release()
	if a.View(x).Count != 2 || a.View(y).Count != 1 {
		t.Fatal("swap through two handles failed")
	}
}

func TestUpdateNestedSameIDPanics(t *testing.T) {
	a := NewArena[widget]("widgets")
	id := a.Add(widget{})
	mustPanicWith[*BorrowError](t, func() {
		a.Update(id, func(*widget) {
			a.Read(id, func(*widget) {})
		})
	})
	// The deferred release ran during the panic, so the entity is free again.
	a.GetMut(id).Release()
}

func TestMutatingDuringIterationPanics(t *testing.T) {
	a := NewArena[widget]("widgets")
	a.Add(widget{})
	mustPanicWith[*BorrowError](t, func() {
		for id := range a.All() {
			a.GetMut(id)
		}
	})
}

func TestHandleSurvivesGrowth(t *testing.T) {
	a := NewArena[widget]("widgets")
	id := a.Add(widget{})
	m := a.GetMut(id)
	for i := 0; i < 1000; i++ {
		a.Add(widget{})
	}
	m.Value().Count = 7
	m.Release()
	if a.View(id).Count != 7 {
		t.Fatal("write through handle lost after growth")
	}
}

func TestDoubleReleasePanics(t *testing.T) {
	a := NewArena[widget]("widgets")
	id := a.Add(widget{})
	m := a.GetMut(id)
	m.Release()
	defer func() {
		if recover() == nil {
			t.Fatal("double release did not panic")
		}
	}()
	m.Release()
}

func TestInvalidIDPanics(t *testing.T) {
	a := NewArena[widget]("widgets")
	b := NewArena[widget]("other")
	b.Add(widget{})
	foreign := b.Add(widget{})
	mustPanicWith[*IDError](t, func() { a.Get(foreign) })
}

func TestValidate(t *testing.T) {
	a := NewArena[widget]("widgets")
	a.Add(widget{})
	if _, ok := a.Validate(0); !ok {
		t.Fatal("valid index rejected")
	}
	for _, raw := range []int{-1, 1, 99} {
		if _, ok := a.Validate(raw); ok {
			t.Fatalf("index %d accepted", raw)
		}
	}
}

func TestArenaJSONRoundTrip(t *testing.T) {
	a := NewArena[widget]("widgets")
	a.Add(widget{Name: "a", Count: 1})
	a.Add(widget{Name: "b", Count: 2})
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back *Arena[widget]
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Len() != 2 || back.View(ID[widget]{idx: 1}).Name != "b" {
		t.Fatalf("round trip mismatch: %s", data)
	}
	again, _ := json.Marshal(back)
	if string(again) != string(data) {
		t.Fatalf("re-encoded %s, want %s", again, data)
	}
}

func TestIDAsMapKey(t *testing.T) {
	m := map[ID[widget]]int{{idx: 3}: 1, {idx: 10}: 2}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[ID[widget]]int
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[ID[widget]{idx: 10}] != 2 {
		t.Fatalf("map key round trip failed: %s", data)
	}
}

func TestIDUnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: `7`, want: 7},
		{in: `"7"`, want: 7},
		{in: `"x"`, wantErr: true},
		{in: `-1`, wantErr: true},
		{in: `""`, wantErr: true},
	}
	for _, tt := range tests {
		var id ID[widget]
		err := json.Unmarshal([]byte(tt.in), &id)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && id.Index() != tt.want {
			t.Fatalf("%s: index = %d, want %d", tt.in, id.Index(), tt.want)
		}
	}
}

func TestIDMapKeyInsideStruct(t *testing.T) {
	type holder struct {
		Opinions map[ID[widget]]int `json:"opinions"`
		Best     *ID[widget]        `json:"best"`
	}
	best := ID[widget]{idx: 10}
	in := holder{Opinions: map[ID[widget]]int{{idx: 2}: -30, {idx: 10}: 40}, Best: &best}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out holder
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if out.Opinions[ID[widget]{idx: 2}] != -30 || *out.Best != best {
		t.Fatalf("decoded %+v from %s", out, data)
	}
}

func TestCheck(t *testing.T) {
	a := NewArena[widget]("widgets")
	ok := a.Add(widget{})
	if err := a.Check(ok); err != nil {
		t.Fatalf("Check(%v) = %v", ok, err)
	}
	err := a.Check(ID[widget]{idx: 5})
	var idErr *IDError
	if !errors.As(err, &idErr) || idErr.Index != 5 || idErr.Len != 1 {
		t.Fatalf("Check(5) = %v", err)
	}
}

func TestRefValueIsCopy(t *testing.T) {
	a := NewArena[widget]("widgets")
	id := a.Add(widget{Count: 1})
	r := a.Get(id)
	v := r.Value()
	v.Count = 99
	r.Release()
	if got := a.View(id).Count; got != 1 {
		t.Fatalf("write through shared handle reached the arena: count = %d", got)
	}
}
