package dice

import "go.uber.org/zap"

// Roller wraps an Executor with a logger so that every roll leaves an audit
// record: notation, id, individual dice, subtotal, modifier, and total, all
// at debug level.
type Roller struct {
	exec   *Executor
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller drawing randomness from src and logging
// each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{exec: NewExecutor(src), logger: logger}
}

// Roll parses notation, executes it, and logs the result.
func (r *Roller) Roll(notation string) (RollResult, error) {
	expr, err := Parse(notation)
	if err != nil {
		return RollResult{}, err
	}
	return r.RollParsed(expr, notation), nil
}

// RollParsed executes an already-parsed expression and logs the result.
//
// Precondition: expr must come from Parse.
func (r *Roller) RollParsed(expr Expression, input string) RollResult {
	result := r.exec.Execute(expr, input)

	values := make([]int, len(result.Rolls))
	for i, entry := range result.Rolls {
		values[i] = entry.Value
	}
	r.logger.Debug("dice roll",
		zap.String("notation", result.Input),
		zap.String("id", result.ID),
		zap.Ints("dice", values),
		zap.Int("subtotal", result.Subtotal),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total),
	)
	return result
}
