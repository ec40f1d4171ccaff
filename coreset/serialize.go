package coreset

import (
	"encoding/json"
	"fmt"
)

// facilityJSON is the wire shape for a single Facility, grounded on the
// teacher's encoding/json config structs (sim/model_config.go): plain
// exported-field structs with json tags, decoded via json.Unmarshal.
type facilityJSON[T Numeric] struct {
	DataID uint64  `json:"data_id"`
	Center []T     `json:"center"`
	Weight float64 `json:"weight"`
	Cost   float64 `json:"cost"`
}

// registryJSON is the wire shape for a FacilityRegistry: its ordered
// facilities plus a distance-kind tag, per spec §6 ("Persisted state...
// FacilityRegistry (ordered facilities plus distance-kind tag)").
type registryJSON[T Numeric] struct {
	DistanceKind string            `json:"distance_kind"`
	Facilities   []facilityJSON[T] `json:"facilities"`
}

// distanceKind names the Distance implementation for the registryJSON tag.
// The core treats Distance as opaque (spec §9); only the two concrete
// metrics this package ships can round-trip through MarshalJSON.
func distanceKind[T Numeric](d Distance[T]) (string, error) {
	switch d.(type) {
	case L1[T]:
		return "l1", nil
	case L2[T]:
		return "l2", nil
	default:
		return "", fmt.Errorf("coreset: MarshalJSON: unsupported distance type %T, only L1/L2 round-trip", d)
	}
}

func distanceFromKind[T Numeric](kind string) (Distance[T], error) {
	switch kind {
	case "l1":
		return L1[T]{}, nil
	case "l2":
		return L2[T]{}, nil
	default:
		return nil, fmt.Errorf("coreset: UnmarshalJSON: unknown distance_kind %q", kind)
	}
}

// MarshalJSON serializes the registry's ordered facilities (data id, center,
// weight, cost) plus a distance-kind tag identifying L1 or L2. Per spec §7
// this is entirely optional ("none required by the core"); when offered it
// must round-trip Facility and FacilityRegistry exactly (spec §6);
// RegistryFromJSON is the inverse.
func (r *FacilityRegistry[T]) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, err := distanceKind[T](r.distance)
	if err != nil {
		return nil, err
	}
	wire := registryJSON[T]{
		DistanceKind: kind,
		Facilities:   make([]facilityJSON[T], len(r.facilities)),
	}
	for i, f := range r.facilities {
		wire.Facilities[i] = facilityJSON[T]{
			DataID: f.DataID(),
			Center: f.Center(),
			Weight: f.Weight(),
			Cost:   f.Cost(),
		}
	}
	return json.Marshal(wire)
}

// RegistryFromJSON reconstructs a FacilityRegistry from the bytes produced
// by MarshalJSON, rebuilding each facility's weight and cost exactly (no
// Dispatch replay) and resolving the distance from the embedded
// distance-kind tag.
func RegistryFromJSON[T Numeric](data []byte) (*FacilityRegistry[T], error) {
	var wire registryJSON[T]
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("coreset: unmarshaling registry: %w", err)
	}
	distance, err := distanceFromKind[T](wire.DistanceKind)
	if err != nil {
		return nil, err
	}
	r := NewFacilityRegistry[T](len(wire.Facilities), distance)
	for _, fw := range wire.Facilities {
		f := NewFacility[T](fw.DataID, fw.Center)
		f.restoreState(fw.Weight, fw.Cost)
		r.Insert(f)
	}
	return r, nil
}
