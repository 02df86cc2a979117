// Task racing
//
// Copyright (c) 2025, 2026  The go-ttt Authors
//
// This file is part of go-ttt.
//
// go-ttt is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-ttt is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-ttt. If not, see
// <http://www.gnu.org/licenses/>

package ttt

import "context"

// First runs every task concurrently and returns the result of the
// one that completes first.  The losers are cancelled and waited for
// before First returns, so no task outlives the call.  Tasks must
// honor cancellation at their next suspension point.
func First[T any](ctx context.Context, tasks ...func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		val T
		err error
	}
	results := make(chan result, len(tasks))
	for _, task := range tasks {
		task := task
		go func() {
			val, err := task(ctx)
			results <- result{val, err}
		}()
	}

	first := <-results
	cancel()
	for i := 1; i < len(tasks); i++ {
		<-results
	}
	return first.val, first.err
}
