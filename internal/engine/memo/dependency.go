package memo

type targetKind uint8

const (
	targetSource targetKind = iota
	targetSingleton
	targetDerived
)

// target is what a dependency points at: a source key or a derived node.
type target struct {
	kind targetKind
	key  Key
	node DerivedNodeID
}

func sourceTarget(k Key) target {
	return target{kind: targetSource, key: k}
}

func singletonTarget(k Key) target {
	return target{kind: targetSingleton, key: k}
}

func derivedTarget(id DerivedNodeID) target {
	return target{kind: targetDerived, node: id}
}

// dependency is one read recorded while a derived node computed. recordedAt is
// the epoch of the read, so any later change of the target has a strictly greater
// timeChanged.
type dependency struct {
	target     target
	recordedAt Epoch
}

// frame collects the reads of one in-flight memoized call.
type frame struct {
	node       DerivedNodeID
	name       string
	deps       []dependency
	maxChanged Epoch
}

func (f *frame) record(t target, timeChanged, now Epoch) {
	dep := dependency{target: t, recordedAt: now}
	if n := len(f.deps); n > 0 && f.deps[n-1].target == t {
		f.deps[n-1] = dep
	} else {
		f.deps = append(f.deps, dep)
	}
	f.maxChanged = max(f.maxChanged, timeChanged)
}
