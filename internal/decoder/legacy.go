package decoder

// legacyConversions maps each of the six deprecated-but-still-produced
// kinds to the modern callback it falls back to when the deprecated kind
// itself has no registered handler.
var legacyConversions = map[Kind]Kind{
	KindThreadFork:          KindOmpFork,
	KindThreadJoin:          KindOmpJoin,
	KindThreadAcquireLock:   KindOmpAcquireLock,
	KindThreadReleaseLock:   KindOmpReleaseLock,
	KindCallingContextEnter: KindEnter,
	KindCallingContextLeave: KindLeave,
}

// lowerToLegacy attempts to synthesize rec's legacy equivalent. Conversion
// only succeeds when the source record's decoded field list already
// matches the legacy kind's schema shape; a genuine model mismatch (the
// legacy kind expects fields the source kind never carried) fails silently
// rather than panicking or returning a malformed record.
func lowerToLegacy(rec *Record) (Record, bool) {
	legacyKind, ok := legacyConversions[rec.Kind]
	if !ok {
		return Record{}, false
	}
	want := len(schemaFor(legacyKind).Fields)
	if want != len(rec.Fields) {
		return Record{}, false
	}
	return Record{Kind: legacyKind, Time: rec.Time, Fields: rec.Fields}, true
}

// LowerToLegacy exports lowerToLegacy for callers outside this package that
// replicate the dispatch-fallback policy themselves, namely GlobalMerger.
func LowerToLegacy(rec *Record) (Record, bool) { return lowerToLegacy(rec) }
