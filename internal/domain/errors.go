package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every concrete error below wraps exactly one of these so
// callers can branch with errors.Is on the category.
var (
	// ErrValidation is returned for bad caller input (owners, threshold, nonce, address)
	ErrValidation = errors.New("validation error")

	// ErrUnsupportedVersion is returned when a contract version is not one of the known generations
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrUnsupportedOperation is returned when the targeted version lacks a feature
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrStateConflict is returned when current on-chain or bundle state forbids the operation
	ErrStateConflict = errors.New("state conflict")

	// ErrNotDeployed is returned when an operation needs a deployed Safe
	ErrNotDeployed = errors.New("not deployed")

	// ErrCollaborator wraps failures coming from the chain client, gas estimator or signer
	ErrCollaborator = errors.New("collaborator failure")
)

// Validation errors
var (
	ErrEmptyBatch       = categorized(ErrValidation, "invalid empty array of transactions")
	ErrInvalidSaltNonce = categorized(ErrValidation, "saltNonce must be greater than or equal to 0")
	ErrNoOwners         = categorized(ErrValidation, "owner list must have at least one owner")
	ErrThresholdTooLow  = categorized(ErrValidation, "threshold must be greater than or equal to 1")
	ErrThresholdTooHigh = categorized(ErrValidation, "threshold must be lower than or equal to owners length")
	ErrDuplicateOwner   = categorized(ErrValidation, "owner list contains duplicate addresses")
	ErrInvalidAddress   = categorized(ErrValidation, "invalid address provided")
	ErrInvalidAmount    = categorized(ErrValidation, "invalid amount")
	ErrInvalidSignature = categorized(ErrValidation, "invalid signature")
	ErrInvalidCall      = categorized(ErrValidation, "invalid call")
	ErrSessionNotFound  = categorized(ErrValidation, "no stored transaction with this hash")
)

// State conflicts
var (
	ErrDuplicateSigner = categorized(ErrStateConflict, "signer already signed this transaction")
	ErrSignerNotOwner  = categorized(ErrStateConflict, "signer is not an owner of the Safe")
	ErrBundleRejected  = categorized(ErrStateConflict, "signature bundle was rejected")
	ErrAlreadyEnabled  = categorized(ErrStateConflict, "already enabled")
	ErrNotEnabled      = categorized(ErrStateConflict, "not enabled")
	ErrThresholdNotMet = categorized(ErrStateConflict, "not enough signatures to reach the threshold")
	ErrHashMismatch    = categorized(ErrStateConflict, "signatures were collected for a different transaction hash")
	ErrOwnerExists     = categorized(ErrStateConflict, "address provided is already an owner")
	ErrNotOwner        = categorized(ErrStateConflict, "address provided is not an owner")
	ErrChainMismatch   = categorized(ErrStateConflict, "connected chain does not match the transaction chain")
	ErrAlreadyExecuted = categorized(ErrStateConflict, "transaction was already submitted for execution")
)

// ErrContractsNotFound is returned when the registry has no deployment for a chain and version
var ErrContractsNotFound = categorized(ErrUnsupportedVersion, "no Safe contracts configured for this chain and version")

// ErrSafeNotDeployed is returned when a predicted Safe is used where a deployed one is required
var ErrSafeNotDeployed = categorized(ErrNotDeployed, "Safe is not deployed")

// ErrAccountAbstractionUnavailable is returned for predicted Safes below 1.3.0
var ErrAccountAbstractionUnavailable = categorized(ErrSafeNotDeployed,
	"account abstraction functionality is not available for Safes with version lower than v1.3.0")

type categoryError struct {
	category error
	msg      string
}

func categorized(category error, msg string) error {
	return &categoryError{category: category, msg: msg}
}

func (e *categoryError) Error() string {
	return e.msg
}

func (e *categoryError) Unwrap() error {
	return e.category
}

// UnsupportedVersionError reports a version string outside the known generations
type UnsupportedVersionError struct {
	Version string
}

func (e UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported Safe version %q", e.Version)
}

func (e UnsupportedVersionError) Unwrap() error {
	return ErrUnsupportedVersion
}

// UnsupportedOperationError reports a feature missing from the targeted contract version
type UnsupportedOperationError struct {
	Feature string
	Version string
}

func (e UnsupportedOperationError) Error() string {
	return fmt.Sprintf("current version of the Safe (%s) does not support %s functionality", e.Version, e.Feature)
}

func (e UnsupportedOperationError) Unwrap() error {
	return ErrUnsupportedOperation
}

// CollaboratorError wraps a failure from an external collaborator verbatim
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the original error and the collaborator category
func (e *CollaboratorError) Unwrap() []error {
	return []error{e.Err, ErrCollaborator}
}

// WrapCollaborator tags err as a collaborator failure. A nil err stays nil.
func WrapCollaborator(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CollaboratorError{Op: op, Err: err}
}

// InvalidAddressError names the parameter that carried a bad address
func InvalidAddressError(what string) error {
	return fmt.Errorf("invalid %s address provided: %w", what, ErrInvalidAddress)
}
