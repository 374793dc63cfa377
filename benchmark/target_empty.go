package benchmark

// nopPerOp is the spin length of one empty dispatch.
const nopPerOp = 100

// EmptyTarget does nothing but spin a fixed number of no-op iterations per
// dispatch. It measures the overhead of the harness itself.
type EmptyTarget struct{}

type emptyThread struct {
	tid  int
	sink uint64
}

type emptyHandle struct{}

func (EmptyTarget) Name() string { return "bm_empty" }

func (EmptyTarget) OperationCount() int { return 1 }

func (EmptyTarget) OperationName(int) string { return "op0_nop" }

func (EmptyTarget) Init(TargetConfig) (Handle, error) { return emptyHandle{}, nil }

func (emptyHandle) RegisterThread(tid int) (ThreadContext, error) {
	return &emptyThread{tid: tid}, nil
}

func (emptyHandle) Dispatch(tc ThreadContext, _ int) OpResult {
	t := tc.(*emptyThread)
	t.sink += Spin(nopPerOp)
	return OpResult{Attempted: 1, Succeeded: 1}
}

func (emptyHandle) DeregisterThread(ThreadContext, int) {}

func (emptyHandle) ExtraInfo() string { return "" }

func (emptyHandle) Destroy() error { return nil }
