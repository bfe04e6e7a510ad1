package jobid

import "encoding/json"

// JobDescription is the tuple hashed into a job_id (spec §4.4): geometry,
// weights, search params, pinned keys, corpus name, cost matrix name.
// Fields carry the same JSON tags their owning packages define so that
// re-marshaling here and marshaling for the wire produce identical field
// names.
type JobDescription struct {
	Keyboard       json.RawMessage   `json:"keyboard"`
	Weights        json.RawMessage   `json:"weights"`
	Params         json.RawMessage   `json:"params"`
	PinnedKeys     map[string]string `json:"pinned_keys"`
	CorpusName     string            `json:"corpus_name"`
	CostMatrixName string            `json:"cost_matrix_name"`
}

// Of computes the canonical job_id for a JobDescription by round-tripping
// it through encoding/json into the generic map/slice/number value model
// Canonical understands, then hashing that canonical form.
//
// Using encoding/json for the *decode into generic values* step (not for
// the canonical serialization itself) is safe: spec §4.4 only requires
// client and server to agree on the final serialized bytes, which is
// entirely controlled by Canonical's own key-sorting and number-formatting
// rules, not by how we happened to get a generic Go value to feed it.
func Of(desc JobDescription) (string, error) {
	raw, err := json.Marshal(desc)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	return Hash(generic)
}
