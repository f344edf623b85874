// Command matchdemo drives two Controllers through a full in-memory match on
// the rulestest fake rules engine, the way cmd/hive drives two AI players
// through a real Hive board.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/cardforge/ccgcore/internal/config"
	"github.com/cardforge/ccgcore/internal/controller"
	"github.com/cardforge/ccgcore/internal/policy"
	"github.com/cardforge/ccgcore/internal/profilers"
	"github.com/cardforge/ccgcore/internal/rules"
	"github.com/cardforge/ccgcore/internal/rules/rulestest"
	"github.com/cardforge/ccgcore/internal/ui/spinning"
)

var (
	flagMaxTurns   = flag.Int("max_turns", 60, "Max turns before the match is called a draw.")
	flagSearcherB  = flag.String("searcher_b", "minimax", "Searcher for player B: minimax or mcts.")
	flagRecordDir  = flag.String("record_dir", "", "If set, record every bridge decision under this directory.")
	flagQuiet      = flag.Bool("quiet", false, "Suppress per-turn logging, print only the final result.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	profilers.Setup(ctx)
	defer profilers.OnQuit()
	spinning.SafeInterrupt(cancel, 3*time.Second)
	defer cancel()

	game := rulestest.NewSimpleMatch()

	searcherB := controller.SearcherMinimax
	if *flagSearcherB == "mcts" {
		searcherB = controller.SearcherMCTS
	}

	controllers := [2]*controller.Controller{
		controller.New(controller.Config{
			Search:      config.Default(),
			Searcher:    controller.SearcherMinimax,
			Policy:      policy.NewRandom(1),
			RecorderDir: *flagRecordDir,
		}),
		controller.New(controller.Config{
			Search:      config.Default(),
			Searcher:    searcherB,
			Policy:      policy.NewRandom(2),
			RecorderDir: *flagRecordDir,
		}),
	}

	turns := 0
	for !game.IsOver() && turns < *flagMaxTurns {
		select {
		case <-ctx.Done():
			fmt.Println("interrupted")
			return
		default:
		}

		player := game.NextPlayer()
		if !game.IsPlayerTurn(player) {
			game.AdvanceTo(rules.PhaseMain1, func() {})
		}

		action, ok := controllers[player].Decide(game, player)
		if !ok {
			if !*flagQuiet {
				fmt.Printf("turn %d: player %d has no action, passing\n", turns, player)
			}
			game.EndTurn()
			turns++
			continue
		}

		if !game.PlayAction(player, action) {
			klog.Warningf("turn %d: player %d's chosen action %q failed to apply", turns, player, action.Description)
		} else if !*flagQuiet {
			fmt.Printf("turn %d: player %d plays %q\n", turns, player, action.Description)
		}

		game.EndTurn()
		turns++
	}

	won := game.IsOver()
	outcome := game.Outcome()
	reason := "max_turns"
	if won {
		reason = string(outcome.WinConditionTag)
		fmt.Printf("match over after %d turns: player %d wins (%s)\n", turns, outcome.WinningPlayer, reason)
	} else {
		fmt.Printf("match drawn after %d turns\n", turns)
	}

	controllers[0].Finalize(won && outcome.WinningPlayer == rules.PlayerA, turns, reason)
	controllers[1].Finalize(won && outcome.WinningPlayer == rules.PlayerB, turns, reason)
}
