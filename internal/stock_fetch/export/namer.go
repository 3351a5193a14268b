package export

// BatchName derives the file identifier for one (entity, day) batch:
// "{identifier}_{dateKey}", no extension. It is a pure function, so
// re-running an export for the same day overwrites the prior object
// instead of duplicating it.
func BatchName(identifier string, key DateKey) string {
	return identifier + "_" + string(key)
}
