// Package loader registers HTTP features on the Fiber router.
//
// A feature bundles a service with its handler and exposes:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager keeps features in registration order. LoadAll skips disabled ones and
// stops at the first Load error, so the server never starts with a partial route set.
//
//	mgr := loader.NewManager()
//	mgr.Register(guide.NewFeature(guideSvc))
//	mgr.Register(integrity.NewFeature(integritySvc))
//	if err := mgr.LoadAll(app); err != nil {
//	    return err
//	}
package loader
