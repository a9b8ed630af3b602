package internal

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/delta/pkg/cache"
)

// Reserved administrative module. It always lives at AdminModulePath,
// regardless of the path manager.
const (
	AdminModule     = "cpanel"
	AdminModulePath = "webapps/cpanel/modules/cpanel"
)

// defaultActionCacheSize bounds the process-wide lookup cache.
const defaultActionCacheSize = 4096

// PathManager maps module names to directories inside the application FS.
type PathManager interface {
	ModulePath(module string) string
}

// ModulePaths is a PathManager backed by a name -> directory map.
// Unlisted modules live under "modules/{name}".
type ModulePaths map[string]string

// ModulePath implements PathManager.
func (m ModulePaths) ModulePath(module string) string {
	if p, ok := m[module]; ok && p != "" {
		return p
	}
	return path.Join("modules", module)
}

// actionDescriptor is the memoized result of an action lookup.
// It never holds an Action instance.
type actionDescriptor struct {
	entry    actionEntry
	pkg      string
	behavior *Behavior
}

// ActionLoader resolves action names to fresh action instances.
//
// Lookups (registry entry, package name, parsed behavior file) are memoized
// by module and action name. With CacheProcess the cache is shared by every
// request of the process and bounded to defaultActionCacheSize entries (LRU);
// with CacheRequest each request starts empty. Instances are never cached.
type ActionLoader struct {
	fsys     fs.FS
	paths    PathManager
	registry *ActionRegistry
	resolver RouteResolver
	policy   CachePolicy
	shared   *cache.Memory[*actionDescriptor]
	group    singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewActionLoader creates a loader. fsys holds module directories and behavior files.
func NewActionLoader(fsys fs.FS, paths PathManager, registry *ActionRegistry, resolver RouteResolver, policy CachePolicy) *ActionLoader {
	if paths == nil {
		paths = ModulePaths{}
	}
	if policy == "" {
		policy = CacheProcess
	}
	l := &ActionLoader{
		fsys:     fsys,
		paths:    paths,
		registry: registry,
		resolver: resolver,
		policy:   policy,
	}
	if policy == CacheProcess {
		l.shared = cache.NewMemory[*actionDescriptor](
			cache.WithDefaultTTL(-1),
			cache.WithCleanupInterval(0),
			cache.WithMaxEntries(defaultActionCacheSize),
		)
	}
	return l
}

// Policy returns the cache lifetime policy.
func (l *ActionLoader) Policy() CachePolicy {
	return l.policy
}

// Close releases the shared cache.
func (l *ActionLoader) Close() error {
	if l.shared != nil {
		return l.shared.Close()
	}
	return nil
}

// CacheStats returns the action cache counters of every request so far.
// Entries and evictions are reported for the process cache only.
func (l *ActionLoader) CacheStats() cache.Stats {
	var st cache.Stats
	if l.shared != nil {
		st = l.shared.Stats()
	}
	st.Hits = l.hits.Load()
	st.Misses = l.misses.Load()
	return st
}

// ModulePath resolves a module to its directory.
// It fails with a *NotFoundError when the directory does not exist.
func (l *ActionLoader) ModulePath(module string) (string, error) {
	dir := l.paths.ModulePath(module)
	if module == AdminModule {
		dir = AdminModulePath
	}
	if l.fsys == nil {
		return "", &NotFoundError{Reason: ReasonModuleMissing, Module: module}
	}
	info, err := fs.Stat(l.fsys, dir)
	if err != nil || !info.IsDir() {
		return "", &NotFoundError{Reason: ReasonModuleMissing, Module: module}
	}
	return dir, nil
}

// Load resolves actionName in module, binds a new instance and pushes a
// Forward onto the request's forward stack.
//
// Unknown actions and packages denied by the route yield a *NotFoundError.
// A full forward stack yields a *ForwardLoopError.
func (l *ActionLoader) Load(c *Context, actionName, module, modulePath string, validate bool) (*Forward, error) {
	desc, err := l.lookup(c, actionName, module, modulePath)
	if err != nil {
		return nil, err
	}

	route := c.Request().Route()
	if !l.resolver.IsAllowPackage(route, desc.pkg) {
		return nil, &NotFoundError{Reason: ReasonPackageDenied, Module: module, Action: actionName}
	}

	instance := &ActionInstance{
		Action:   desc.entry.factory(),
		name:     actionName,
		pkg:      desc.pkg,
		validate: validate,
		behavior: desc.behavior,
	}

	var controller string
	if route != nil {
		controller = route.Controller()
	}
	fwd := NewForward(module, controller, actionName, instance)
	if err := c.Request().Forwards().Add(fwd); err != nil {
		return nil, err
	}
	return fwd, nil
}

// lookup returns the memoized descriptor for module + action.
func (l *ActionLoader) lookup(c *Context, actionName, module, modulePath string) (*actionDescriptor, error) {
	key := module + ":" + actionName
	store := l.cacheFor(c)

	if desc, err := store.Get(c, key); err == nil {
		l.hits.Add(1)
		return desc, nil
	}
	l.misses.Add(1)

	v, err, _ := l.group.Do(key, func() (any, error) {
		return l.resolve(actionName, module, modulePath)
	})
	if err != nil {
		return nil, err
	}
	desc := v.(*actionDescriptor)
	_ = store.Set(context.WithoutCancel(c), key, desc, -1)
	return desc, nil
}

func (l *ActionLoader) cacheFor(c *Context) cache.Cache[*actionDescriptor] {
	if l.policy == CacheProcess {
		return l.shared
	}
	if c.actionCache == nil {
		c.actionCache = cache.NewMemory[*actionDescriptor](
			cache.WithDefaultTTL(-1),
			cache.WithCleanupInterval(0),
		)
	}
	return c.actionCache
}

// resolve performs the uncached lookup.
func (l *ActionLoader) resolve(actionName, module, modulePath string) (*actionDescriptor, error) {
	className := ActionClassName(actionName)
	entry, ok := l.registry.lookup(module, className)
	if !ok {
		return nil, &NotFoundError{Reason: ReasonActionMissing, Module: module, Action: actionName}
	}

	behavior, err := loadBehavior(l.fsys, behaviorPath(modulePath, entry.packagePath, className))
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	return &actionDescriptor{
		entry:    entry,
		pkg:      packageName(module, entry.packagePath),
		behavior: behavior,
	}, nil
}
