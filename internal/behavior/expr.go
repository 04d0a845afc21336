package behavior

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/talgya/mini-brain/internal/action"
	"github.com/talgya/mini-brain/internal/perception"
)

// ExprEnv is the environment a scoring expression is evaluated in, once per
// candidate perception.
type ExprEnv struct {
	Dist  float64 `expr:"dist"`  // Distance from the agent
	Count int     `expr:"count"` // Number of candidates of the type
	Index int     `expr:"index"` // Position of the candidate in registration order
	X     float64 `expr:"x"`
	Y     float64 `expr:"y"`
	Z     float64 `expr:"z"`
}

// Expr is a data-driven behavior: a compiled expression scores every
// perception of one type and the best one is walked to.
type Expr struct {
	name    string
	source  string
	program *vm.Program

	Type      string  // Perception type scored
	Speed     float64 // MoveTo speed and blackboard value of Key
	Key       string  // Blackboard key raised while walking
	TrackLive bool    // Follow moving targets
}

// NewExpr compiles expression. It must evaluate to a number.
func NewExpr(name, perceptionType, expression string, speed float64) (*Expr, error) {
	program, err := expr.Compile(expression,
		expr.Env(ExprEnv{}),
		expr.AsFloat64(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile behavior %q: %w", name, err)
	}
	if speed <= 0 {
		speed = 1
	}
	return &Expr{
		name:    name,
		source:  expression,
		program: program,
		Type:    perceptionType,
		Speed:   speed,
		Key:     KeyMoveForwards,
	}, nil
}

func (b *Expr) Name() string { return b.name }

// Source returns the expression text.
func (b *Expr) Source() string { return b.source }

func (b *Expr) Score(agent action.Agent, pm *perception.Manager) Scored {
	if !pm.HasType(b.Type) {
		return Scored{}
	}
	ps := pm.AppendType(b.Type, nil)
	own := agent.Position()

	best := Scored{}
	for i, p := range ps {
		env := ExprEnv{
			Dist:  p.Position.Sub(own).Length(),
			Count: len(ps),
			Index: i,
			X:     p.Position.X,
			Y:     p.Position.Y,
			Z:     p.Position.Z,
		}
		out, err := expr.Run(b.program, env)
		if err != nil {
			slog.Error("behavior expression failed", "behavior", b.name, "expression", b.source, "error", err)
			return Scored{}
		}
		score, ok := out.(float64)
		if !ok || math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		if score > best.Score {
			best = Scored{Behavior: b, Score: score, Perception: p}
		}
	}
	return best
}

func (b *Expr) SetUpActions(agent action.Agent, p *perception.Perception, q *action.Queue) {
	q.Cancel(agent)
	pushTravel(q, target(p, b.TrackLive), b.Key, b.Speed)
}
