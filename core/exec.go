package core

// Executor builds the serialized swap/approve transaction pair for an
// execution request. The real implementation belongs to the external
// execution-engine transaction builder; this service only owns the
// request/response shape and the component intersection that feeds it.
type Executor interface {
	Build(network string, req ExecutionRequest, originals []Component) (ExecutionPayload, error)
}

// IntersectComponents keeps, in the order given by req.Components, only the
// entries that also exist in current — the execute algorithm's "intersect
// with the request's components, keeping originals" step.
func IntersectComponents(req []ComponentID, current []Component) []Component {
	byID := make(map[ComponentID]Component, len(current))
	for _, c := range current {
		byID[NormalizeComponentID(string(c.ID))] = c
	}
	out := make([]Component, 0, len(req))
	for _, id := range req {
		if c, ok := byID[NormalizeComponentID(string(id))]; ok {
			out = append(out, c)
		}
	}
	return out
}
