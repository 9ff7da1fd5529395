package scene

import (
	"github.com/Carmen-Shannon/oxy4d/engine/geometry"
	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's display name. Defaults to the scene's uuid.
//
// Parameters:
//   - name: the display name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithRegistry sets the registry the scene's resources are tracked in. Teardown disposes the
// scene's scope in this registry. Defaults to a private registry.
//
// Parameters:
//   - reg: the shared registry
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRegistry(reg resource.Registry) SceneBuilderOption {
	return func(s *scene) {
		s.registry = reg
	}
}

// WithScope overrides the registry scope. Defaults to "scene/<uuid>".
//
// Parameters:
//   - scope: the scope name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithScope(scope resource.Scope) SceneBuilderOption {
	return func(s *scene) {
		s.scope = scope
	}
}

// WithRotorEpsilon sets the drift tolerance of transforms created by AddNode.
//
// Parameters:
//   - eps: the rotor epsilon
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRotorEpsilon(eps float64) SceneBuilderOption {
	return func(s *scene) {
		if eps > 0 {
			s.epsilon = eps
		}
	}
}

// WithLogger sets the scene's logger.
func WithLogger(l *log.Logger) SceneBuilderOption {
	return func(s *scene) {
		if l != nil {
			s.logger = l
		}
	}
}

// NodeOption configures a node created by AddNode.
type NodeOption func(n *node)

// WithLabel sets the node's label.
func WithLabel(label string) NodeOption {
	return func(n *node) {
		n.label = label
	}
}

// WithMesh sets the node's mesh.
func WithMesh(m *geometry.Mesh) NodeOption {
	return func(n *node) {
		n.mesh = m
	}
}

// WithTransform sets the node's initial local transform.
func WithTransform(t hypermath.Transform4D) NodeOption {
	return func(n *node) {
		n.local = t
	}
}
