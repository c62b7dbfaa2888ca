// Package scenario defines the scenario catalog and the seed resolver.
//
// A ScenarioSpec is immutable: the catalog is constructed once at startup,
// either from DefaultCatalog or from a YAML file, and passed by value to
// every component that needs it.
//
// # Catalog Format
//
//	scenarios:
//	  - scenario_id: happy_path
//	    scenario_kind: golden_journey
//	    journey_id: J-GRAPH-CORE
//	    mode: strict
//	    fixture_id: graph_core_shortest_path_strict.json
//	    packet_id: FNX-P2C-001
//	  - scenario_id: soak_long_run
//	    scenario_kind: soak
//	    ...
//	    soak_profile: long_run
//	    soak_threat_class: resource_exhaustion
//
// # Seeds
//
// Seeds are never invented. The Resolver reads the scenario-matrix artifact
// produced upstream and fails closed (ErrSeedMissing) when a journey/mode pair
// is absent.
package scenario
