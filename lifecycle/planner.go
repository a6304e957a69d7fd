package lifecycle

// PlanStartupOrder partitions a roster into ordered startup batches.
//
// All system workers form batch 0 and all core workers batch 1 (each started
// at once; they are few and critical). User workers follow in fixed-size
// batches in roster order. Empty tiers produce no batch.
func PlanStartupOrder(workers []*WorkerRecord, cfg Config) [][]string {
	var system, core, user []string
	for _, w := range workers {
		switch w.Tier {
		case TierSystem:
			system = append(system, w.Name)
		case TierCore:
			core = append(core, w.Name)
		default:
			user = append(user, w.Name)
		}
	}

	var batches [][]string
	if len(system) > 0 {
		batches = append(batches, system)
	}
	if len(core) > 0 {
		batches = append(batches, core)
	}

	size := cfg.StartupBatchSize
	if size <= 0 {
		size = DefaultConfig().StartupBatchSize
	}
	for i := 0; i < len(user); i += size {
		end := i + size
		if end > len(user) {
			end = len(user)
		}
		batches = append(batches, user[i:end])
	}

	return batches
}
