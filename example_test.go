package flowable_test

import (
	"context"
	"fmt"
	"log"

	"github.com/fangliji/flowable-engine"
)

const leave = `
key: leave
nodes:
  - {id: start, type: startEvent}
  - {id: route, type: exclusiveGateway, default_flow: toClerk}
  - {id: manager, name: Manager approval, type: userTask, candidate_users: boss}
  - {id: clerk, name: Clerk approval, type: userTask, candidate_users: clerk}
  - {id: end, type: endEvent}
flows:
  - {id: f1, from: start, to: route}
  - {id: toManager, from: route, to: manager, condition: "${days > 10}"}
  - {id: toClerk, from: route, to: clerk}
  - {id: f2, from: manager, to: end}
  - {id: f3, from: clerk, to: end}
`

// ExampleEngine_InsertTask routes a long leave request to the manager, then
// adds a review step behind the manager for this instance only.
func ExampleEngine_InsertTask() {
	eng, err := flowable.New()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	if _, err := eng.Deploy(ctx, []byte(leave)); err != nil {
		log.Fatal(err)
	}
	pi, err := eng.StartProcessInstance(ctx, "leave", "", map[string]any{"days": 12})
	if err != nil {
		log.Fatal(err)
	}

	tasks, err := eng.Tasks(ctx, pi.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tasks[0].Name)

	if _, err := eng.InsertTask(ctx, pi.ID, "manager", "after", "Review", []string{"hr"}); err != nil {
		log.Fatal(err)
	}
	if err := eng.CompleteTask(ctx, tasks[0].ID, nil); err != nil {
		log.Fatal(err)
	}

	tasks, err = eng.Tasks(ctx, pi.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tasks[0].Name)

	// Output:
	// Manager approval
	// Review
}
