// Package cache stores values with expiration behind one generic interface.
//
// [Memory] is an in-process LRU with an optional size bound; delta keeps its
// action lookups in it. [Redis] shares values between processes and backs
// the session store in multi-instance deployments:
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	store := session.NewCacheStore(
//	    cache.NewRedis[*session.Session](client, nil, cache.WithPrefix("sess")),
//	    cache.NewRedis[string](client, nil, cache.WithPrefix("sess-id")),
//	)
//
// Both report [Stats]; delta exports the action cache counters as
// Prometheus metrics.
package cache
