// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by package tests.
//
// [Identity] builds a valid, signed key event log in memory: incept,
// interact, rotate, and receipt another identity's events. Storage,
// transport and processor tests use it as the remote party without
// going through the controller.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests never hang on a channel.
//
// All helpers call t.Fatalf on failure.
package testutil
