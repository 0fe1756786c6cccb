package pipes

import "github.com/villawad/agora-results/internal/engine"

// References of the built-in units.
const (
	RefDoTallies        = "agora_results.pipes.results.do_tallies"
	RefSortNonIterative = "agora_results.pipes.sort.sort_non_iterative"
	RefWithdrawAnswers  = "agora_results.pipes.modifications.withdraw_answers"
	RefMergeResults     = "agora_results.pipes.multipart.merge_results"
)

// Register adds every built-in unit to reg.
func Register(reg *engine.Registry) error {
	units := []struct {
		ref  string
		unit engine.Unit
	}{
		{RefDoTallies, engine.UnitFunc(DoTallies)},
		{RefSortNonIterative, engine.UnitFunc(SortNonIterative)},
		{RefWithdrawAnswers, engine.UnitFunc(WithdrawAnswers)},
		{RefMergeResults, engine.UnitFunc(MergeResults)},
	}
	for _, u := range units {
		if err := reg.Register(u.ref, u.unit); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in units.
func NewRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}
