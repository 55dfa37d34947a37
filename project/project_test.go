package project_test

import (
	"reflect"
	"testing"

	"github.com/db47h/circsim"
	"github.com/db47h/circsim/format"
	"github.com/db47h/circsim/project"
	"github.com/pkg/errors"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func check(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
}

func newProject(t *testing.T, names ...string) (*project.Project, []*project.Board) {
	t.Helper()
	p := project.New(circsim.NewSimulator())
	var bs []*project.Board
	for _, n := range names {
		b, err := p.CreateCircuit(n)
		check(t, err)
		bs = append(bs, b)
	}
	p.History().Clear()
	return p, bs
}

func place(t *testing.T, b *project.Board, kind string, props circsim.Properties, x, y int) *circsim.Component {
	t.Helper()
	c, err := b.NewComponent(kind, props, x, y)
	check(t, err)
	check(t, b.AddComponent(c))
	return c
}

func pin(t *testing.T, b *project.Board, label, dir string, x, y int) *circsim.Component {
	t.Helper()
	return place(t, b, "PIN", circsim.Properties{circsim.PropLabel: label, circsim.PropDirection: dir}, x, y)
}

func instance(t *testing.T, b, sub *project.Board, x, y int) *circsim.Component {
	t.Helper()
	c, err := b.NewSubcircuit(sub, x, y)
	check(t, err)
	check(t, b.AddComponent(c))
	return c
}

// inverter lays out in -> NOT -> out on b, ports touching.
func inverter(t *testing.T, b *project.Board) (in, not, out *circsim.Component) {
	t.Helper()
	in = pin(t, b, "in", circsim.DirIn, 0, 0)
	not = place(t, b, "NOT", nil, 2, 0)
	out = pin(t, b, "out", circsim.DirOut, 5, 0)
	return
}

// wrap places an instance of sub at (x, y) on b, with an input pin named in
// and an output pin named out touching its ports.
func wrap(t *testing.T, b, sub *project.Board, in, out string, x, y int) {
	t.Helper()
	pin(t, b, in, circsim.DirIn, x-2, y)
	pin(t, b, out, circsim.DirOut, x+4, y)
	instance(t, b, sub, x, y)
}

func find(b *project.Board, label string) *circsim.Component {
	for _, c := range b.Components() {
		if c.Property(circsim.PropLabel) == label {
			return c
		}
	}
	return nil
}

func subcircuits(b *project.Board) []*circsim.Component {
	var cs []*circsim.Component
	for _, c := range b.Components() {
		if c.Kind() == circsim.KindSubcircuit {
			cs = append(cs, c)
		}
	}
	return cs
}

func set(t *testing.T, b *project.Board, label, v string) {
	t.Helper()
	val, err := circsim.ParseValue(v)
	check(t, err)
	check(t, b.State().SetPin(find(b, label), val))
}

func get(b *project.Board, label string) string {
	return b.State().Value(find(b, label), 0).String()
}

func names(p *project.Project) []string {
	var ns []string
	for _, b := range p.Boards() {
		ns = append(ns, b.Name())
	}
	return ns
}

func TestProject_createUndo(t *testing.T) {
	p, _ := newProject(t, "main", "other")
	x, err := p.CreateCircuit("X")
	check(t, err)
	id := x.Circuit().ID()

	b, err := p.Undo()
	check(t, err)
	if b != nil {
		t.Errorf("undo returned board %s, which is no longer part of the project", b.Name())
	}
	if got := names(p); !reflect.DeepEqual(got, []string{"main", "other"}) {
		t.Fatalf("got circuits %v after undo", got)
	}
	b, err = p.Redo()
	check(t, err)
	if b != x || p.Board("X") != x || x.Circuit().ID() != id {
		t.Fatal("redo did not bring back the same circuit")
	}
	if got := names(p); !reflect.DeepEqual(got, []string{"main", "other", "X"}) {
		t.Fatalf("got circuits %v after redo", got)
	}
}

func TestProject_createName(t *testing.T) {
	p, _ := newProject(t, "main")
	for _, n := range []string{"", "main"} {
		_, err := p.CreateCircuit(n)
		if _, ok := err.(*project.NameError); !ok {
			t.Errorf("CreateCircuit(%q): expected a name error, got %v", n, err)
		}
	}
	if p.CanUndo() {
		t.Error("failed creations were recorded")
	}
}

func TestProject_group(t *testing.T) {
	p, _ := newProject(t, "main")
	h := p.History()
	h.BeginGroup()
	x, err := p.CreateCircuit("X")
	check(t, err)
	and := place(t, x, "AND", nil, 10, 0)
	check(t, x.AddWire(project.Wire{X: 14, Y: 1, Length: 4, Horizontal: true}))
	h.EndGroup()
	if h.UndoSize() != 1 {
		t.Fatalf("expected a single undo unit, got %d", h.UndoSize())
	}

	_, err = p.Undo()
	check(t, err)
	if p.Board("X") != nil || len(x.Components()) != 0 || len(x.Wires()) != 0 {
		t.Fatal("undo did not revert the whole group")
	}
	_, err = p.Redo()
	check(t, err)
	if p.Board("X") != x || len(x.Wires()) != 1 {
		t.Fatal("redo did not reapply the whole group")
	}
	if cs := x.Components(); len(cs) != 1 || cs[0] != and {
		t.Fatalf("expected the AND gate back, got %v", cs)
	}
	if p.CanRedo() || !p.CanUndo() {
		t.Fatal("bad undo/redo stacks")
	}
}

func TestProject_rename(t *testing.T) {
	p, bs := newProject(t, "cell", "main")
	cell, main := bs[0], bs[1]
	inverter(t, cell)
	wrap(t, main, cell, "a", "y", 10, 0)

	check(t, p.RenameCircuit(cell, "inv"))
	subs := subcircuits(main)
	if len(subs) != 1 || subs[0].Property(circsim.PropCircuit) != "inv" {
		t.Fatalf("instance not renamed: %v", subs)
	}
	set(t, main, "a", "1")
	if v := get(main, "y"); v != "0" {
		t.Errorf("instance disconnected after rename: y = %s", v)
	}
	if err := p.RenameCircuit(cell, "main"); err == nil {
		t.Error("renamed to a name in use")
	}

	_, err := p.Undo()
	check(t, err)
	if cell.Name() != "cell" || subcircuits(main)[0].Property(circsim.PropCircuit) != "cell" {
		t.Fatal("rename not undone")
	}
}

func TestProject_move(t *testing.T) {
	p, bs := newProject(t, "a", "b", "c")
	check(t, p.MoveCircuit(bs[2], 0))
	if got := names(p); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("got %v", got)
	}
	_, err := p.Undo()
	check(t, err)
	if got := names(p); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("got %v after undo", got)
	}
}

func TestProject_deleteCascade(t *testing.T) {
	p, bs := newProject(t, "cell", "main", "other")
	cell, main, other := bs[0], bs[1], bs[2]
	inverter(t, cell)
	wrap(t, main, cell, "a", "y", 10, 0)
	wrap(t, main, cell, "b", "z", 10, 10)
	and := place(t, main, "AND", nil, 30, 0)
	wrap(t, other, cell, "a", "y", 10, 0)
	p.History().Clear()

	check(t, p.DeleteCircuit(cell))
	if got := names(p); !reflect.DeepEqual(got, []string{"main", "other"}) {
		t.Fatalf("got circuits %v", got)
	}
	if n := len(subcircuits(main)) + len(subcircuits(other)); n != 0 {
		t.Fatalf("%d instances left", n)
	}
	if cs := main.Components(); len(cs) != 5 || find(main, "a") == nil || cs[4] != and {
		t.Fatalf("unrelated components affected: %v", cs)
	}
	if p.History().UndoSize() != 1 {
		t.Fatalf("expected a single undo unit, got %d", p.History().UndoSize())
	}

	_, err := p.Undo()
	check(t, err)
	if got := names(p); !reflect.DeepEqual(got, []string{"cell", "main", "other"}) {
		t.Fatalf("got circuits %v after undo", got)
	}
	if n := len(subcircuits(main)); n != 2 {
		t.Fatalf("expected 2 instances back, got %d", n)
	}
	set(t, main, "b", "1")
	if v := get(main, "z"); v != "0" {
		t.Errorf("restored instance not wired: z = %s", v)
	}
}

func TestProject_deleteLast(t *testing.T) {
	p, bs := newProject(t, "main")
	check(t, p.DeleteCircuit(bs[0]))
	if got := names(p); !reflect.DeepEqual(got, []string{project.DefaultCircuitName}) {
		t.Fatalf("got %v", got)
	}
	_, err := p.Undo()
	check(t, err)
	if got := names(p); !reflect.DeepEqual(got, []string{"main"}) {
		t.Fatalf("got %v after undo", got)
	}
}

func TestProject_resync(t *testing.T) {
	p, bs := newProject(t, "cell", "main")
	cell, main := bs[0], bs[1]
	inverter(t, cell)
	wrap(t, main, cell, "a", "y", 10, 0)

	pin(t, cell, "en", circsim.DirIn, 0, 4)
	subs := subcircuits(main)
	if len(subs) != 1 || subs[0].PortCount() != 3 || subs[0].PortIndex("en") < 0 {
		t.Fatalf("instance does not follow the pins of its circuit: %v", subs[0].Ports())
	}
	set(t, main, "a", "1")
	if v := get(main, "y"); v != "0" {
		t.Errorf("y = %s", v)
	}

	_, err := p.Undo()
	check(t, err)
	if n := subcircuits(main)[0].PortCount(); n != 2 {
		t.Fatalf("expected 2 ports after undo, got %d", n)
	}
}

func TestBoard_wiring(t *testing.T) {
	_, bs := newProject(t, "main")
	b := bs[0]
	pin(t, b, "a", circsim.DirIn, 0, 0)
	pin(t, b, "b", circsim.DirIn, 0, 4)
	place(t, b, "AND", nil, 10, 0)
	pin(t, b, "y", circsim.DirOut, 20, 0)
	for _, w := range []project.Wire{
		{X: 2, Y: 1, Length: 8, Horizontal: true},  // a -> in0
		{X: 6, Y: 0, Length: 6},                    // crosses the first wire
		{X: 2, Y: 5, Length: 4, Horizontal: true},  // b -> vertical wire
		{X: 6, Y: 2, Length: 4, Horizontal: true},  // vertical wire -> in1
		{X: 14, Y: 1, Length: 6, Horizontal: true}, // out -> y
	} {
		check(t, b.AddWire(w))
	}

	data := []struct {
		a, b, y string
	}{
		{"0", "0", "0"},
		{"1", "0", "0"},
		{"0", "1", "0"},
		{"1", "1", "1"},
	}
	for _, d := range data {
		set(t, b, "a", d.a)
		set(t, b, "b", d.b)
		if y := get(b, "y"); y != d.y {
			t.Errorf("a=%s b=%s: expected %s, got %s", d.a, d.b, d.y, y)
		}
		if err := b.Err(); err != "" {
			t.Errorf("a=%s b=%s: %s", d.a, d.b, err)
		}
	}

	place(t, b, "PIN", circsim.Properties{circsim.PropBits: "2", circsim.PropDirection: circsim.DirOut}, 20, 10)
	err := b.AddWire(project.Wire{X: 20, Y: 1, Length: 10})
	if _, ok := errors.Cause(err).(*circsim.WidthError); !ok {
		t.Fatalf("expected a width error, got %v", err)
	}
	if n := len(b.Wires()); n != 5 {
		t.Fatalf("failed wire added anyway: %d wires", n)
	}
	if err = b.AddWire(project.Wire{X: 0, Y: 20}); err == nil {
		t.Fatal("zero length wire accepted")
	}
}

func TestBoard_move(t *testing.T) {
	p, bs := newProject(t, "main")
	b := bs[0]
	in, not, _ := inverter(t, b)
	if in.Link(0) == nil {
		t.Fatal("pin not linked to NOT")
	}
	check(t, b.MoveElements([]*circsim.Component{not}, nil, 0, 5))
	if in.Link(0) != nil {
		t.Fatal("link survived the move")
	}
	_, err := p.Undo()
	check(t, err)
	if x, y := not.Position(); x != 2 || y != 0 || in.Link(0) == nil {
		t.Fatalf("move not undone: NOT at (%d, %d)", x, y)
	}
}

func TestBoard_setProperty(t *testing.T) {
	p, bs := newProject(t, "main")
	b := bs[0]
	and := place(t, b, "AND", nil, 0, 0)
	nu, err := b.SetProperty(and, circsim.PropInputs, "3")
	check(t, err)
	if nu.PortCount() != 4 || b.Components()[0] != nu {
		t.Fatalf("property not applied: %v", b.Components())
	}
	if _, err = b.SetProperty(nu, circsim.PropCircuit, "main"); err == nil {
		t.Fatal("changed the nested circuit of a gate")
	}
	if _, err = b.SetProperty(nu, circsim.PropBits, "99"); err == nil {
		t.Fatal("invalid bit width accepted")
	}

	_, err = p.Undo()
	check(t, err)
	if b.Components()[0] != and {
		t.Fatal("undo did not restore the original component")
	}
	_, err = p.Redo()
	check(t, err)
	if b.Components()[0] != nu {
		t.Fatal("redo did not restore the updated component")
	}
}

func TestBoard_state(t *testing.T) {
	_, bs := newProject(t, "cell", "main")
	cell, main := bs[0], bs[1]
	inverter(t, cell)
	wrap(t, main, cell, "a", "y", 10, 0)
	inst := subcircuits(main)[0]

	child := main.State().Child(inst)
	check(t, cell.SetState(child))
	if err := cell.SetState(main.State()); err == nil {
		t.Fatal("displayed a state of another circuit")
	}
	set(t, main, "a", "1")
	if v := cell.State().Value(find(cell, "out"), 0).String(); v != "0" {
		t.Fatalf("nested out = %s", v)
	}

	check(t, main.RemoveComponent(inst))
	if cell.State() != cell.Circuit().TopLevelState() {
		t.Fatal("board still displays a destroyed state")
	}
}

func TestBoard_stateRepoint(t *testing.T) {
	data := []struct {
		name   string
		policy circsim.SubcircuitPolicy
		keep   bool
	}{
		{"preserve", circsim.PreserveSameCircuit, true},
		{"reset", circsim.ResetAlways, false},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			p := project.New(circsim.NewSimulator(circsim.Policy(d.policy)))
			cell, err := p.CreateCircuit("cell")
			check(t, err)
			main, err := p.CreateCircuit("main")
			check(t, err)
			inverter(t, cell)
			wrap(t, main, cell, "a", "y", 10, 0)
			inst := subcircuits(main)[0]
			set(t, main, "a", "1")
			child := main.State().Child(inst)
			check(t, cell.SetState(child))

			nu, err := main.SetProperty(inst, circsim.PropLabel, "u1")
			check(t, err)
			shown := cell.State()
			if d.keep {
				if shown != child || main.State().Child(nu) != child {
					t.Fatal("displayed state not repointed onto the new instance")
				}
			} else if shown != cell.Circuit().TopLevelState() || child.Alive() {
				t.Fatal("displayed state not reset")
			}
			ch := main.State().Child(nu)
			if v := ch.Value(find(cell, "in"), 0).String(); v != "1" {
				t.Fatalf("nested in = %s after replace", v)
			}
			if v := get(main, "y"); v != "0" {
				t.Fatalf("y = %s after replace", v)
			}

			_, err = p.Undo()
			check(t, err)
			if d.keep && (cell.State() != child || main.State().Child(inst) != child) {
				t.Fatal("displayed state lost on undo")
			}
			if v := get(main, "y"); v != "0" {
				t.Fatalf("y = %s after undo", v)
			}
		})
	}
}

func TestProject_saveLoad(t *testing.T) {
	p, bs := newProject(t, "cell", "main")
	cell, main := bs[0], bs[1]
	inverter(t, cell)
	wrap(t, main, cell, "a", "y", 10, 0)
	check(t, main.AddWire(project.Wire{X: 16, Y: 5, Length: 3}))
	f := p.Save()

	data, err := format.Marshal(f)
	check(t, err)
	f2, err := format.Unmarshal(data)
	check(t, err)
	q := project.New(circsim.NewSimulator())
	check(t, q.Load(f2))
	if got := names(q); !reflect.DeepEqual(got, []string{"cell", "main"}) {
		t.Fatalf("got circuits %v", got)
	}
	if q.CanUndo() || q.Modified() {
		t.Error("loading was recorded")
	}
	m := q.Board("main")
	set(t, m, "a", "1")
	if v := get(m, "y"); v != "0" {
		t.Errorf("loaded circuit: y = %s", v)
	}
	if g := q.Save(); !reflect.DeepEqual(g, f) {
		t.Errorf("save after load differs:\n%+v\n%+v", f, g)
	}
}

func TestProject_loadErrors(t *testing.T) {
	f := &format.File{
		Version: format.Version,
		Circuits: []format.Circuit{
			{Name: "main", Components: []format.Component{
				{Kind: "AND"},
				{Kind: "BOGUS", X: 10},
				{Kind: "SUBCIRCUIT", X: 20, Properties: map[string]string{"circuit": "nowhere"}},
			}},
			{Name: "main"},
		},
	}
	p, _ := newProject(t, "keep")
	err := p.Load(f)
	re, ok := err.(*project.ReplayError)
	if !ok {
		t.Fatalf("expected a replay error, got %v", err)
	}
	if len(re.Errs) != 3 {
		t.Errorf("expected 3 errors, got %v", re)
	}
	if n := len(p.Boards()); n != 0 {
		t.Fatalf("partially loaded project: %v", names(p))
	}
}

func TestBoard_paste(t *testing.T) {
	p, bs := newProject(t, "main")
	b := bs[0]
	_, not, _ := inverter(t, b)
	clip := b.Copy([]*circsim.Component{not}, nil)
	clip.Components = append(clip.Components, format.Component{Kind: "BOGUS"})
	clip.Wires = []format.Wire{{X: 20, Y: 20, Length: 2, Horizontal: true}}
	p.History().Clear()

	cs, err := b.Paste(clip)
	if re, ok := err.(*project.ReplayError); !ok || len(re.Errs) != 1 {
		t.Fatalf("expected a single skipped element, got %v", err)
	}
	if len(cs) != 1 {
		t.Fatalf("expected 1 component pasted, got %d", len(cs))
	}
	if x, y := cs[0].Position(); x != 5 || y != 3 {
		t.Errorf("pasted at (%d, %d)", x, y)
	}
	if w := b.Wires(); len(w) != 1 || w[0].X != 23 || w[0].Y != 23 {
		t.Errorf("wires pasted as %v", w)
	}
	if p.History().UndoSize() != 1 {
		t.Fatalf("paste recorded as %d units", p.History().UndoSize())
	}
	_, err = p.Undo()
	check(t, err)
	if len(b.Components()) != 3 || len(b.Wires()) != 0 {
		t.Fatal("paste not undone")
	}
}
