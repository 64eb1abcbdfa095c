// Package catalog holds the compile-time registry of invocable tests and
// turns it into the ordered descriptor set a harness run walks.
//
// Tests are registered explicitly; nothing is discovered by reflection.
// Discovery applies an eligibility Selector and a name Comparator:
//
//	reg := catalog.NewRegistry("Main")
//	reg.MustRegister(catalog.Descriptor{Name: "testInt1"}, catalog.Static(testInt1))
//	descs := reg.Discover(catalog.DiscoverOptions{
//	    Selector:   catalog.Prefix("test"),
//	    Comparator: catalog.CaseInsensitive,
//	})
//
// Discovery is deterministic: the order depends only on the registered names
// and, for names the comparator considers equal, on registration order.
package catalog
