// Package redis opens go-redis clients for the shared session and cache
// backends and adapts them to the application lifecycle.
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"))
//	if err != nil {
//	    return err
//	}
//	app, err := delta.New(
//	    delta.WithSession(session.NewCacheStore(
//	        cache.NewRedis[*session.Session](client, nil, cache.WithPrefix("sess")),
//	        cache.NewRedis[string](client, nil, cache.WithPrefix("sess-id")),
//	    )),
//	    delta.WithHealthChecks(delta.WithReadinessCheck("redis", redis.Healthcheck(client))),
//	)
//	...
//	app.Run(":8080", delta.ShutdownHook(redis.Shutdown(client)))
package redis
