package shader

import "errors"

var (
	// ErrParse is returned when shader source cannot be reflected.
	ErrParse = errors.New("shader: parse error")

	// ErrContractMissing is returned when no shader in a program declares the contract block.
	ErrContractMissing = errors.New("shader: uniform contract block not declared")

	// ErrContractMismatch is returned when a declared block disagrees with the contract.
	ErrContractMismatch = errors.New("shader: uniform contract mismatch")

	// ErrUnknownLanguage is returned for file extensions or languages the engine cannot load.
	ErrUnknownLanguage = errors.New("shader: unknown shader language")

	// ErrStage is returned when a shader does not provide the requested stage.
	ErrStage = errors.New("shader: invalid stage")
)
