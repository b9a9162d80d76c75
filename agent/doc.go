// Copyright 2024 FluxGraph Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package agent provides the agent registry and adapters for FluxGraph.

# Overview

Workflows refer to agents by name; the registry is the name-keyed
lookup that resolves those references. It is an explicit instance with
an explicit lifecycle: create one, register agents, hand it to whatever
builds workflows, and clear it between tests. There is no process-wide
singleton.

# Registry

	reg := agent.NewRegistry(logger)
	err := reg.Register("math.double", agent.Func(double))
	a, err := reg.Get("math.double")

Registering a name twice fails with ALREADY_REGISTERED; looking up an
unknown name fails with NOT_REGISTERED. Names may use dot-separated
groups ("math.double", "text.summarize"); List and GroupTree query by
group.

# Adapters

Func adapts a plain function to the types.Agent interface. NamedFunc
additionally attaches a name so the agent survives round-trips through
workflow definitions. RateLimited decorates any agent with a
token-bucket rate limit.

All registry operations are safe for concurrent use.
*/
package agent
