// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for shinc.
//
// Every command is built by a newXCommand(app) constructor and reads its
// configuration through the App composition root, so tests can swap the
// config provider, compiler, prompter and git repository.
package cmd
