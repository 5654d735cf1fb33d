/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package luckygas

import (
	"context"

	"github.com/luckygas/luckygas/internal/notification"
	"github.com/luckygas/luckygas/internal/search"
	"github.com/luckygas/luckygas/model"
)

func (l *LuckyGas) postCustomerActions(_ context.Context, customer *model.Customer) {
	go func() {
		err := l.queue.queueIndexData(customer.CustomerID, search.CollectionCustomers, customer)
		if err != nil {
			notification.NotifyError(err)
		}
		err = SendWebhook(NewWebhook{
			Event:   "customer.created",
			Payload: customer,
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
}

func (l *LuckyGas) CreateCustomer(ctx context.Context, customer model.Customer) (model.Customer, error) {
	customer, err := l.datasource.CreateCustomer(ctx, customer)
	if err != nil {
		return model.Customer{}, err
	}
	l.postCustomerActions(ctx, &customer)
	return customer, nil
}

func (l *LuckyGas) GetCustomerByID(ctx context.Context, id string) (*model.Customer, error) {
	return l.datasource.GetCustomerByID(ctx, id)
}

func (l *LuckyGas) GetAllCustomers(ctx context.Context, filter model.CustomerFilter) ([]model.Customer, error) {
	return l.datasource.GetAllCustomers(ctx, filter)
}

func (l *LuckyGas) UpdateCustomer(ctx context.Context, customer *model.Customer) error {
	if err := l.datasource.UpdateCustomer(ctx, customer); err != nil {
		return err
	}
	go func() {
		if err := l.queue.queueIndexData(customer.CustomerID, search.CollectionCustomers, customer); err != nil {
			notification.NotifyError(err)
		}
	}()
	return nil
}

func (l *LuckyGas) DeleteCustomer(ctx context.Context, id string) error {
	return l.datasource.DeleteCustomer(ctx, id)
}
