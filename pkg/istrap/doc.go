// SPDX-License-Identifier: MPL-2.0

// Package istrap models ilstrap packages and the manifest the host-side
// runtime reads.
//
// A package is a directory with an istrap.json descriptor at its root:
//
//	{
//	    "name": "demo",
//	    "version": "1.0.0",
//	    "load_paths": ["mods"],
//	    "loaders": ["loaders/demo_loader.py"],
//	    "plugins": ["plugins/demo_plugin.py"]
//	}
//
// Descriptors are obtained through a Registry of Loader variants (local
// directory, local tarball, GitHub release) and placed into the host plugin
// tree with CopyTo or LinkTo. The Manifest records every installed package
// by name.
package istrap
