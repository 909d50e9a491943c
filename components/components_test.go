package components

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindProducer:  "producer",
		KindHerbivore: "herbivore",
		KindCarnivore: "carnivore",
		Kind(99):      "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestKindConsumer(t *testing.T) {
	if KindProducer.Consumer() {
		t.Error("producers are not consumers")
	}
	if !KindHerbivore.Consumer() || !KindCarnivore.Consumer() {
		t.Error("herbivores and carnivores are consumers")
	}
}

func TestTargetSet(t *testing.T) {
	var tgt Target
	if tgt.Set() {
		t.Error("zero target must read as unset")
	}

	w := ecs.NewWorld()
	tgt.Entity = w.NewEntity()
	if !tgt.Set() {
		t.Error("assigned target must read as set")
	}

	tgt.Entity = ecs.Entity{}
	if tgt.Set() {
		t.Error("cleared target must read as unset")
	}
}
