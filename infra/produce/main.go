package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	BucketService *BucketService
	ObjectService *ObjectService
}

var produceInstance *Produce

func InitProduce(channel *amqp.Channel) *Produce {
	if produceInstance != nil {
		return produceInstance
	}

	bucketService := InitBucketService(channel)
	if bucketService == nil {
		panic("Failed to initialize Bucket service")
	}

	objectService := InitObjectService(channel)
	if objectService == nil {
		panic("Failed to initialize Object service")
	}

	produceInstance = &Produce{
		BucketService: bucketService,
		ObjectService: objectService,
	}

	return produceInstance
}

func GetProduce() *Produce {
	if produceInstance == nil {
		panic("Produce not initialized. Call InitProduce() first.")
	}
	return produceInstance
}
