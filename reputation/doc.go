// Package reputation fuses trust signals from independent sources into a
// single score per worker.
//
// Three layers contribute, each optional:
//
//   - On-chain: timestamped attestations, aggregated with exponential time
//     decay (recent attestations count more).
//   - Off-chain: the worker's own task performance history.
//   - Transactional: ratings received from counterparties.
//
// Each layer produces a score in [0,100] and a confidence in [0,1] derived
// from its data volume. Fusion blends the available layers with
// confidence-boosted weights and classifies the result into a tier.
//
// # Usage
//
//	cfg := reputation.DefaultConfig()
//	onChain := reputation.ComputeOnChain(attestations, cfg, time.Now())
//	offChain := reputation.ExtractOffChain("worker-1", perfData, cfg)
//	unified := reputation.ComputeUnified("worker-1", &onChain, &offChain, nil, cfg)
//
//	fmt.Println(unified.Composite, unified.Tier)
//
// Missing sources never block scoring: a worker with no data at all gets a
// neutral composite of 50 with zero confidence.
package reputation
