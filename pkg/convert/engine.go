package convert

import (
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/larder/internal/log"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Engine performs conversions under a fixed policy and type registry.
// An Engine is immutable after New and safe for concurrent use.
type Engine struct {
	policy   Policy
	registry *Registry
	log      logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the unsigned range policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithRegistry sets the registry consulted by Import.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLogger sets the logger used to trace demoted fields at debug level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an Engine. Without options it uses SignedBound, an empty
// registry and a discarding logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy:   SignedBound,
		registry: NewRegistry(),
		log:      log.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Default is the engine used by the package-level functions.
var Default = New()

// Policy returns the engine's unsigned range policy.
func (e *Engine) Policy() Policy { return e.policy }

// Registry returns the engine's type registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Scalar converts v to the target kind using Default.
func Scalar(v types.Value, target types.Kind) (types.Value, bool) {
	return Default.Scalar(v, target)
}

// Represent converts v into the first kind of kinds it can reach, using Default.
func Represent(v types.Value, kinds types.KindSet) (types.Value, bool) {
	return Default.Represent(v, kinds)
}

// Object converts src into the target representation using Default.
func Object(src types.Object, target types.ObjectType) Result {
	return Default.Object(src, target)
}

// Sequence converts src into the target representation using Default.
func Sequence(src types.Sequence, target types.SequenceType) types.Sequence {
	return Default.Sequence(src, target)
}

// SequenceDetailed converts src and reports dropped indices, using Default.
func SequenceDetailed(src types.Sequence, target types.SequenceType) SequenceResult {
	return Default.SequenceDetailed(src, target)
}

// ObjectToSequence converts the values of src into a sequence using Default.
func ObjectToSequence(src types.Object, target types.SequenceType) types.Sequence {
	return Default.ObjectToSequence(src, target)
}

// Import turns a native Go value into a Value using Default.
func Import(x any, target types.ObjectType) (types.Value, error) {
	return Default.Import(x, target)
}
