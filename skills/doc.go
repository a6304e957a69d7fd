// Package skills tracks what each worker can do.
//
// A Registry holds the declared skill profile per worker and feeds the
// matching engine's skill-overlap factor. The optional Index mirrors
// profiles into a bleve full-text index so operators can answer
// discovery queries ("who can verify zk proofs on mainnet?") with BM25
// ranking instead of exact keyword overlap.
package skills
