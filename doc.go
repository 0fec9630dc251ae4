package datakit

// Remote-then-local fallback is a composition the host performs, not a
// backend behavior. A FileStore built on an unreachable storage account
// fails construction with storage.ErrBackendUnavailable; the host that
// wants to degrade gracefully catches that and constructs a local
// store instead:
//
//	store, err := datakit.New(ctx, cfg, root)
//	if errors.Is(err, storage.ErrBackendUnavailable) {
//		localCfg := *cfg
//		localCfg.Storage.Type = config.BackendLocal
//		store, err = datakit.New(ctx, &localCfg, root)
//	}
//
// Keeping the fallback out of the backend keeps failure semantics
// uniform: every constructed store talks to exactly the backend its
// configuration names.
