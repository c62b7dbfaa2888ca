package ir

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// FNV-1a 64-bit parameters. Every identity in the system depends on these
// exact values; they must never change.
const (
	fnvOffsetBasis uint64 = 0xCBF29CE484222325
	fnvPrime       uint64 = 0x100000001B3
)

// Hash64 computes the 64-bit FNV-1a hash of text, byte-wise over its UTF-8
// encoding. Arithmetic wraps modulo 2^64. Pure and total.
func Hash64(text string) uint64 {
	h := fnvOffsetBasis
	for i := 0; i < len(text); i++ {
		h ^= uint64(text[i])
		h *= fnvPrime
	}
	return h
}

// HashParts hashes the pipe-joined parts.
//
// Example: HashParts("happy_path", "strict") == Hash64("happy_path|strict")
func HashParts(parts ...string) uint64 {
	return Hash64(strings.Join(parts, "|"))
}

// Hex renders a hash as 16 lowercase hex digits.
func Hex(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// ScenarioIdentity is the subset of scenario fields that feeds bundle
// identity. Execution-time data (timestamps, pass label, run id) is absent
// by construction.
type ScenarioIdentity struct {
	ScenarioID   string
	ScenarioKind string
	JourneyID    string
	PacketID     string
	Mode         string
	FixtureID    string
	Seed         int64
}

// BundleID computes "bundle-" + hash64(schema_version|scenario_id|mode|fixture_id|seed).
// Identical for the same scenario across any number of passes.
func BundleID(id ScenarioIdentity) string {
	return "bundle-" + Hex(HashParts(
		BundleSchemaVersion,
		id.ScenarioID,
		id.Mode,
		id.FixtureID,
		strconv.FormatInt(id.Seed, 10),
	))
}

// StableFingerprint computes
// hash64(scenario_id|scenario_kind|journey_id|packet_id|mode|fixture_id|seed).
func StableFingerprint(id ScenarioIdentity) string {
	return Hex(HashParts(
		id.ScenarioID,
		id.ScenarioKind,
		id.JourneyID,
		id.PacketID,
		id.Mode,
		id.FixtureID,
		strconv.FormatInt(id.Seed, 10),
	))
}

// CheckpointHash keys a soak health checkpoint.
// Cycle indexes are 1-based.
func CheckpointHash(scenarioID string, seed, intervalMS int64, cycleIndex int) uint64 {
	return HashParts(
		scenarioID,
		strconv.FormatInt(seed, 10),
		strconv.FormatInt(intervalMS, 10),
		strconv.Itoa(cycleIndex),
	)
}

// AdversarialSeed derives the fuzz seed for a (packet, threat class,
// generator variant) triple. The result fits in 31 bits so every fuzzer
// front-end accepts it.
func AdversarialSeed(packetID, threatClass, generatorVariant string) int64 {
	return int64(HashParts("adversarial", packetID, threatClass, generatorVariant) & 0x7FFFFFFF)
}

// FixtureIdentity holds every identifying field of an adversarial seed entry.
type FixtureIdentity struct {
	PacketID              string
	ThreatClass           string
	ValidationGate        string
	GeneratorVariant      string
	Seed                  int64
	ExpectedFailureMode   string
	FailureClassification string
}

// FixtureHashID hashes all identifying fields of an adversarial seed entry.
// Regenerating a ledger from the same manifest reproduces the same id.
func FixtureHashID(id FixtureIdentity) string {
	return "fixture-" + Hex(HashParts(
		id.PacketID,
		id.ThreatClass,
		id.ValidationGate,
		id.GeneratorVariant,
		strconv.FormatInt(id.Seed, 10),
		id.ExpectedFailureMode,
		id.FailureClassification,
	))
}

// StackSignature is the synthetic crash signature for a threat class hitting
// a validation gate with a given failure mode.
func StackSignature(threatClass, expectedFailureMode, validationGate string) string {
	return "sig-" + Hex(HashParts(threatClass, expectedFailureMode, validationGate))
}

// TriageID keys one triage decision in one environment.
func TriageID(fixtureHashID, environmentFingerprint string) string {
	return "triage-" + Hex(HashParts(fixtureHashID, environmentFingerprint))
}

// RegressionFixtureID is the join key into the regression fixture bundle.
// It excludes the environment fingerprint so a finding promoted on two
// machines lands on the same fixture.
func RegressionFixtureID(fixtureHashID, stackSignature string) string {
	return "regression-" + Hex(HashParts(fixtureHashID, stackSignature))
}

// EnvironmentFingerprint hashes OS, architecture and Go runtime version.
// Nothing else is included; existing triage keys depend on that.
func EnvironmentFingerprint() string {
	return EnvironmentFingerprintOf(runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// EnvironmentFingerprintOf is EnvironmentFingerprint over explicit values.
func EnvironmentFingerprintOf(goos, goarch, goVersion string) string {
	return "env-" + Hex(HashParts(goos, goarch, goVersion))
}
